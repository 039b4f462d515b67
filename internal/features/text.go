package features

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"salesprep/internal/table"
)

// Category tags
const (
	CategoryElectronics = "electronics"
	CategoryHome        = "home"
	CategoryOther       = "other"
)

var (
	electronicsKeywords = []string{"tv", "smart", "phone", "laptop", "tablet"}
	homeKeywords        = []string{"chair", "table", "sofa", "bed"}

	// brands are matched in order; the first hit wins
	brands = []string{"sony", "samsung", "lg", "panasonic"}

	digitRe = regexp.MustCompile(`\d`)
)

// Categorize tags a product name. Electronics keywords are checked first.
func Categorize(product string) string {
	p := strings.ToLower(product)
	if containsAny(p, electronicsKeywords) {
		return CategoryElectronics
	}
	if containsAny(p, homeKeywords) {
		return CategoryHome
	}
	return CategoryOther
}

// Brand returns the first known brand found in product, or "other"
func Brand(product string) string {
	p := strings.ToLower(product)
	for _, b := range brands {
		if strings.Contains(p, b) {
			return b
		}
	}
	return CategoryOther
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func (d *Deriver) productText(b *builder) {
	product, ok := d.Schema.ResolveColumn(b.t, table.RoleProduct, table.KindText)
	if !ok {
		return
	}
	n := b.rows()
	category := make([]string, n)
	brand := make([]string, n)
	length := make([]float64, n)
	hasDigit := make([]bool, n)
	valid := make([]bool, n)

	for i := 0; i < n; i++ {
		if product.IsMissing(i) {
			length[i] = nanValue
			continue
		}
		name := product.Text(i)
		valid[i] = true
		category[i] = Categorize(name)
		brand[i] = Brand(name)
		length[i] = float64(utf8.RuneCountInString(name))
		hasDigit[i] = digitRe.MatchString(name)
	}

	b.add(table.NewText(ColCategory, category, valid))
	b.add(table.NewNumber(ColNameLength, length))
	b.add(table.NewBool(ColHasDigit, hasDigit, append([]bool(nil), valid...)))
	b.add(table.NewText(ColBrand, brand, append([]bool(nil), valid...)))
}
