package coursebooks

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/etnz/coursebooks/date"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ErrInvalidForm is wrapped by every validation error of a form.
var ErrInvalidForm = errors.New("invalid form")

// ExpenseCategories are the suggested expense categories. Any other category is accepted.
var ExpenseCategories = []string{
	"Rent",
	"Utilities",
	"Marketing & Advertising",
	"Salaries & Benefits",
	"Office Supplies",
	"Travel",
	"Professional Services",
	"Technology",
	"Training & Development",
	"Insurance",
	"Other",
}

// Student is the billing record of a student enrolled in a course.
//
// Fees are computed once at enrollment and never recomputed, even if the
// rates change afterwards.
type Student struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	CourseName    string    `json:"courseName"`
	BaseFee       float64   `json:"baseFee"`
	LMSFee        float64   `json:"lmsFee"`
	GST           float64   `json:"gst"`
	TotalFee      float64   `json:"totalFee"`
	CreatedAt     time.Time `json:"createdAt"`
	InvoiceNumber string    `json:"invoiceNumber"`
}

// Subtotal is the taxable amount of the invoice.
func (s Student) Subtotal() float64 { return s.BaseFee + s.LMSFee }

// Day is the enrollment day, in the offset the enrollment was recorded with.
func (s Student) Day() date.Date { return date.Of(s.CreatedAt) }

// Expense is a business expense.
type Expense struct {
	ID          string    `json:"id"`
	Date        date.Date `json:"date"`
	Category    string    `json:"category"`
	Amount      float64   `json:"amount"`
	Notes       string    `json:"notes"`
	Attachments []string  `json:"attachments,omitempty"` // file names only, content is not retained
	CreatedAt   time.Time `json:"createdAt"`
}

// Settings are the business preferences.
type Settings struct {
	LMSFee             float64 `json:"lmsFee" validate:"finite,gte=0"`
	GSTRate            float64 `json:"gstRate" validate:"finite,gte=0,lte=100"`
	EmailNotifications bool    `json:"emailNotifications"`
	AutoBackup         bool    `json:"autoBackup"`
}

// DefaultSettings returns the settings of a new book.
func DefaultSettings() Settings {
	return Settings{
		LMSFee:             DefaultRates.LMSFee,
		GSTRate:            DefaultRates.GSTRate,
		EmailNotifications: true,
		AutoBackup:         true,
	}
}

// Rates returns the billing rates configured by these settings.
func (s Settings) Rates() Rates { return Rates{LMSFee: s.LMSFee, GSTRate: s.GSTRate} }

// Validate checks the settings values.
func (s Settings) Validate() error { return validateForm(s) }

// Enrollment is the form filled to enroll a student.
type Enrollment struct {
	Name       string  `validate:"required"`
	Email      string  `validate:"required,email"`
	CourseName string  `validate:"required"`
	BaseFee    float64 `validate:"finite,gte=0"`
}

// Validate trims the text fields and checks the form.
func (f *Enrollment) Validate() error {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	f.CourseName = strings.TrimSpace(f.CourseName)
	return validateForm(f)
}

// ExpenseEntry is the form filled to record an expense.
type ExpenseEntry struct {
	Date        date.Date
	Category    string  `validate:"required"`
	Amount      float64 `validate:"finite,gte=0"`
	Notes       string
	Attachments []string `validate:"dive,required"`
}

// Validate trims the text fields and checks the form.
func (f *ExpenseEntry) Validate() error {
	f.Category = strings.TrimSpace(f.Category)
	f.Notes = strings.TrimSpace(f.Notes)
	var errs []error
	if f.Date.IsZero() {
		errs = append(errs, fmt.Errorf("%w: Date is required", ErrInvalidForm))
	}
	if err := validateForm(f); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// amounts must survive a JSON round trip
	err := v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return !math.IsInf(f, 0) && !math.IsNaN(f)
	})
	if err != nil {
		panic(err)
	}
	return v
}

// validateForm runs the struct tag validation and turns failures into a
// readable error wrapping ErrInvalidForm.
func validateForm(form any) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", ErrInvalidForm, err)
	}
	errs := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			errs = append(errs, fmt.Errorf("%s is required", fe.Field()))
		case "email":
			errs = append(errs, fmt.Errorf("%s %q is not a valid email address", fe.Field(), fe.Value()))
		case "finite":
			errs = append(errs, fmt.Errorf("%s must be a finite number, got %v", fe.Field(), fe.Value()))
		case "gte":
			errs = append(errs, fmt.Errorf("%s must be at least %s, got %v", fe.Field(), fe.Param(), fe.Value()))
		case "lte":
			errs = append(errs, fmt.Errorf("%s must be at most %s, got %v", fe.Field(), fe.Param(), fe.Value()))
		default:
			errs = append(errs, fmt.Errorf("%s fails %q", fe.Field(), fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %w", ErrInvalidForm, errors.Join(errs...))
}

// newID returns a new record identifier.
func newID() string { return uuid.NewString() }
