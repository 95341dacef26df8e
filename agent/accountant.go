package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/etnz/coursebooks"
	"github.com/etnz/coursebooks/date"
	"github.com/etnz/coursebooks/docs"
	"github.com/etnz/coursebooks/renderer"
	"google.golang.org/genai"
)

var monthSchema = &genai.Schema{
	Type:        genai.TypeString,
	Description: "A calendar month as YYYY-MM, e.g. 2025-01. Omit it for the whole book.",
}

// Accountant returns the functions reading the book.
func Accountant(book *coursebooks.Book, settings coursebooks.Settings) []Function {
	return []Function{
		&Func{
			Decl: &genai.FunctionDeclaration{
				Name:        "summary",
				Description: "Total revenue, total expenses, net profit and the number of students and expenses, for the whole book or a month.",
				Parameters: &genai.Schema{
					Type:       genai.TypeObject,
					Properties: map[string]*genai.Schema{"month": monthSchema},
				},
				Response: &genai.Schema{Type: genai.TypeString, Description: "A JSON object with the figures, amounts in rupees."},
			},
			Func: func(_ context.Context, args map[string]any) (string, error) {
				r, err := monthArg(args)
				if err != nil {
					return "", err
				}
				a := book.Audit(r)
				data, err := json.Marshal(a)
				return string(data), err
			},
		},
		&Func{
			Decl: &genai.FunctionDeclaration{
				Name:        "students",
				Description: "The enrolled students with their course and fee breakdown.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"search": {Type: genai.TypeString, Description: "Only students whose name, email or course contains this text."},
						"month":  monthSchema,
					},
				},
				Response: &genai.Schema{Type: genai.TypeString, Description: "A markdown table of the students."},
			},
			Func: func(_ context.Context, args map[string]any) (string, error) {
				r, err := monthArg(args)
				if err != nil {
					return "", err
				}
				search, err := stringArg(args, "search")
				if err != nil {
					return "", err
				}
				var list []coursebooks.Student
				for _, s := range book.Students(coursebooks.StudentsIn(r), coursebooks.StudentMatching(search)) {
					list = append(list, s)
				}
				return renderer.RenderStudents(list), nil
			},
		},
		&Func{
			Decl: &genai.FunctionDeclaration{
				Name:        "expenses",
				Description: "The business expenses.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"search":   {Type: genai.TypeString, Description: "Only expenses whose notes or category contains this text."},
						"category": {Type: genai.TypeString, Description: "Only expenses of this exact category.", Enum: slices.Clone(coursebooks.ExpenseCategories)},
						"month":    monthSchema,
					},
				},
				Response: &genai.Schema{Type: genai.TypeString, Description: "A markdown table of the expenses."},
			},
			Func: func(_ context.Context, args map[string]any) (string, error) {
				r, err := monthArg(args)
				if err != nil {
					return "", err
				}
				search, err := stringArg(args, "search")
				if err != nil {
					return "", err
				}
				category, err := stringArg(args, "category")
				if err != nil {
					return "", err
				}
				var list []coursebooks.Expense
				for _, e := range book.Expenses(coursebooks.ExpensesIn(r), coursebooks.ExpenseMatching(search), coursebooks.InCategory(category)) {
					list = append(list, e)
				}
				return renderer.RenderExpenses(list), nil
			},
		},
		&Func{
			Decl: &genai.FunctionDeclaration{
				Name:        "quote",
				Description: "The fee breakdown a student would pay for a course, with the current LMS fee and GST rate.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"baseFee": {Type: genai.TypeNumber, Description: "The course fee in rupees."},
					},
					Required: []string{"baseFee"},
				},
				Response: &genai.Schema{Type: genai.TypeString, Description: "A markdown table of the breakdown."},
			},
			Func: func(_ context.Context, args map[string]any) (string, error) {
				fee, ok := args["baseFee"].(float64)
				if !ok {
					return "", fmt.Errorf("argument 'baseFee' is not a number as expected but %T", args["baseFee"])
				}
				if fee < 0 {
					return "", fmt.Errorf("argument 'baseFee' must be positive, got %v", fee)
				}
				rates := settings.Rates()
				return renderer.RenderQuote(renderer.Quote{Breakdown: rates.Breakdown(fee), GSTRate: rates.GSTRate}), nil
			},
		},
		&Func{
			Decl: &genai.FunctionDeclaration{
				Name:        "documentation",
				Description: "The user documentation of the cbk command line tool that keeps the books.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"topic": {Type: genai.TypeString, Description: "The topic to read, '*' for all of them.", Enum: append(docs.All(), "*")},
					},
					Required: []string{"topic"},
				},
				Response: &genai.Schema{Type: genai.TypeString, Description: "The markdown documentation of the topic."},
			},
			Func: func(_ context.Context, args map[string]any) (string, error) {
				topic, err := stringArg(args, "topic")
				if err != nil {
					return "", err
				}
				return docs.Topics(topic)
			},
		},
	}
}

// NewAccountant creates the expert in charge of the book.
func NewAccountant(book *coursebooks.Book, settings coursebooks.Settings) *Expert {
	lib := Accountant(book, settings)
	return &Expert{
		Name: "Accountant",
		Description: `This is the Accountant. They keep the books of the training company:
		students enrolled with their fees and invoices, and the business expenses.
		Ask them about revenue, expenses, profit, students, fee quotes or how to use cbk.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(lib)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
				You are the accountant of a training company.
				Use the Tools to read the students, expenses and summaries of the books.
				Each student pays a course fee plus an LMS fee, and GST on both.
				Pardon the approximate language of your colleagues and figure out what they meant.
			`}}},
		},
		Library: NewLibrary(lib),
	}
}

// stringArg returns the optional string argument name.
func stringArg(args map[string]any, name string) (string, error) {
	v, ok := args[name]
	if !ok {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument '%s' is not a string as expected but %T", name, v)
	}
	return s, nil
}

// monthArg returns the range of the optional month argument, or the zero range.
func monthArg(args map[string]any) (date.Range, error) {
	s, err := stringArg(args, "month")
	if err != nil || s == "" {
		return date.Range{}, err
	}
	d, err := date.ParseMonth(s)
	if err != nil {
		return date.Range{}, fmt.Errorf("argument 'month' must be YYYY-MM, got %q", s)
	}
	return date.NewRange(d, date.Monthly), nil
}
