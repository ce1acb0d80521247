package val

import "regexp"

//canonical vaccine product keys and the matching rules that fold the many
//upstream spellings into them

type Product string

const (
	ProductPfizer  Product = "pfizer"
	ProductModerna Product = "moderna"
	ProductJJ      Product = "jj"
	ProductNovavax Product = "novavax"
)

var PfizerProductPattern = regexp.MustCompile(`(?i)pfizer|comirnaty`)
var ModernaProductPattern = regexp.MustCompile(`(?i)moderna|spikevax`)
var JJProductPattern = regexp.MustCompile(`(?i)j&j|jnj|johnson|janssen`)
var NovavaxProductPattern = regexp.MustCompile(`(?i)novavax`)

// matchProduct maps an upstream product name onto a canonical key.
// Returns "" when the name is not recognized.
func matchProduct(name string) Product {
	if PfizerProductPattern.MatchString(name) {
		return ProductPfizer
	}

	if ModernaProductPattern.MatchString(name) {
		return ProductModerna
	}

	if JJProductPattern.MatchString(name) {
		return ProductJJ
	}

	if NovavaxProductPattern.MatchString(name) {
		return ProductNovavax
	}

	return ""
}

type ProductSet struct {
	arr []Product
}

func (ps ProductSet) Contains(product Product) bool {
	for _, v := range ps.arr {
		if v == product {
			return true
		}
	}

	return false
}

func (ps ProductSet) Add(product Product) ProductSet {
	if !ps.Contains(product) {
		ps.arr = append(ps.arr, product)
	}

	return ps
}

func (ps ProductSet) ToStringArray() []string {
	strArr := make([]string, 0, len(ps.arr))
	for _, product := range ps.arr {
		strArr = append(strArr, string(product))
	}

	return strArr
}
