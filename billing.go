package coursebooks

// Rates is the billing configuration applied when a student is enrolled.
type Rates struct {
	LMSFee  float64 // flat learning-management-system surcharge added to every course
	GSTRate float64 // GST rate in percent, applied to the subtotal
}

// DefaultRates are the rates of the training company: a ₹5000 LMS fee and 18% GST.
var DefaultRates = Rates{LMSFee: 5000, GSTRate: 18}

// Breakdown is the invoice arithmetic for a course fee.
//
// Amounts are kept in full float64 precision: fractional paise are preserved
// and only display formatting rounds.
type Breakdown struct {
	BaseFee  float64 `json:"baseFee"`
	LMSFee   float64 `json:"lmsFee"`
	Subtotal float64 `json:"subtotal"`
	GST      float64 `json:"gst"`
	Total    float64 `json:"total"`
}

// Breakdown computes the invoice arithmetic for baseFee with these rates.
//
// It is pure and cheap, so it can be called on every keystroke of a preview.
// Inputs are not validated, this is the caller's job.
func (r Rates) Breakdown(baseFee float64) Breakdown {
	subtotal := baseFee + r.LMSFee
	gst := subtotal * (r.GSTRate / 100)
	return Breakdown{
		BaseFee:  baseFee,
		LMSFee:   r.LMSFee,
		Subtotal: subtotal,
		GST:      gst,
		Total:    subtotal + gst,
	}
}

// CalculateBilling computes the breakdown of baseFee at the fixed 18% GST rate.
// The LMS fee defaults to DefaultRates.LMSFee, an explicit lmsFee overrides it.
func CalculateBilling(baseFee float64, lmsFee ...float64) Breakdown {
	r := Rates{LMSFee: DefaultRates.LMSFee, GSTRate: 18}
	if len(lmsFee) > 0 {
		r.LMSFee = lmsFee[0]
	}
	return r.Breakdown(baseFee)
}
