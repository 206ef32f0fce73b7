package engine

import (
	"errors"
	"fmt"

	"gitlab.com/stephen-fox/gmpatch/hostio"
	"gitlab.com/stephen-fox/gmpatch/resource"
	"gitlab.com/stephen-fox/gmpatch/textcodec"
)

// ImportReport summarizes ImportStrings.
type ImportReport struct {
	// Swapped counts the strings set to new text.
	Swapped int

	// Restored counts the strings whose new text equals their
	// original text and were pointed back at it.
	Restored int

	// Unchanged counts the strings that already held the text.
	Unchanged int

	// Surplus counts the lines with no string to apply them to.
	Surplus int

	Diags []resource.Diag
}

// Texts returns the current text of every string, in catalog order.
func (o *Session) Texts() ([]string, error) {
	if !o.resolved {
		return nil, ErrNotResolved
	}

	out := make([]string, len(o.texts))
	copy(out, o.texts)

	return out, nil
}

// Text returns the current text of string i.
func (o *Session) Text(i int) (string, error) {
	index, err := o.Strings()
	if err != nil {
		return "", err
	}

	if i < 0 || i >= index.Len() {
		return "", fmt.Errorf("string %d of %d - %w", i, index.Len(), resource.ErrIndexRange)
	}

	return o.texts[i], nil
}

// SetString swaps string i for text.
func (o *Session) SetString(i int, text string) error {
	index, err := o.Strings()
	if err != nil {
		return err
	}

	err = index.SwapText(i, text)
	if err != nil && !errors.Is(err, resource.ErrTornEntry) {
		return err
	}

	o.texts[i] = text

	return err
}

// AppendString appends text to the current text of string i.
func (o *Session) AppendString(i int, text string) error {
	current, err := o.Text(i)
	if err != nil {
		return err
	}

	return o.SetString(i, current+text)
}

// RestoreString points string i back at its original text.
func (o *Session) RestoreString(i int) error {
	index, err := o.Strings()
	if err != nil {
		return err
	}

	err = index.Restore(i)
	if err != nil {
		return err
	}

	entry, _ := index.Entry(i)
	o.texts[i] = entry.Text

	return nil
}

// RestoreAllStrings points every swapped string back at its
// original text.
func (o *Session) RestoreAllStrings() (int, error) {
	index, err := o.Strings()
	if err != nil {
		return 0, err
	}

	restored, err := index.RestoreAll()

	for i, entry := range index.Entries() {
		if !entry.Swapped() {
			o.texts[i] = entry.Text
		}
	}

	return restored, err
}

// ExportStrings writes the current text of every string to path,
// one escaped record per line.
func (o *Session) ExportStrings(path string) error {
	texts, err := o.Texts()
	if err != nil {
		return err
	}

	err = hostio.WriteAll(path, []byte(textcodec.JoinRecords(texts)))
	if err != nil {
		return err
	}

	o.logf("exported %d strings to %q", len(texts), path)

	return nil
}

// ImportStrings applies the records in the file at path to the
// strings, in catalog order. A record equal to a string's original
// text restores it, and a differing record swaps it. Strings without
// a record are left alone.
func (o *Session) ImportStrings(path string) (ImportReport, error) {
	var report ImportReport

	index, err := o.Strings()
	if err != nil {
		return report, err
	}

	b, err := hostio.ReadAll(path)
	if err != nil {
		return report, err
	}

	records := textcodec.SplitRecords(string(b))

	o.stages.Next(fmt.Sprintf("importing %d strings", len(records)))
	defer o.stages.Done()

	var diags resource.Diags
	var errs []error

	for i, text := range records {
		if i >= index.Len() {
			report.Surplus = len(records) - index.Len()
			diags.Addf(0, resource.DiagSurplus, "ignored %d records past the last of %d strings",
				report.Surplus, index.Len())
			break
		}

		entry, _ := index.Entry(i)

		switch {
		case text == o.texts[i]:
			report.Unchanged++
		case text == entry.Text:
			err = o.RestoreString(i)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			report.Restored++
		default:
			err = o.SetString(i, text)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			report.Swapped++
		}
	}

	report.Diags = diags.Items()

	return report, errors.Join(errs...)
}

// SearchStrings finds the strings containing query, ignoring case.
// Repeating a query selects the next match.
func (o *Session) SearchStrings(query string) (SearchResult, bool, error) {
	texts, err := o.Texts()
	if err != nil {
		return SearchResult{}, false, err
	}

	result, found := o.search.Next(texts, query)

	return result, found, nil
}
