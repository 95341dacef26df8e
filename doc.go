// Package coursebooks keeps the books of a small training company: the
// students it enrolls in its courses and the expenses it pays.
//
// The core functionalities include:
//   - Billing: computing the fees of an enrollment (base fee, LMS fee and
//     GST) and issuing unique invoice numbers.
//   - Records: validating enrollment and expense forms into Student and
//     Expense records kept, in recording order, in a Book.
//   - Reports: the dashboard, period audits and monthly figures computed
//     from the book.
//   - Exports: full JSON backups that can be restored and queried, and CSV
//     reports of students and expenses.
//   - Data Persistence: loading and saving the book and its settings as JSON
//     documents in a key-value store (see package store).
//
// This package serves as the foundational logic for the `cbk` command-line
// tool.
package coursebooks
