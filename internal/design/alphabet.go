package design

// Alphabet is the 20 standard amino acid one-letter codes.
const Alphabet = "ACDEFGHIKLMNPQRSTVWY"

var residueLookup = buildResidueLookup()

func buildResidueLookup() [256]bool {
	var table [256]bool
	for i := 0; i < len(Alphabet); i++ {
		table[Alphabet[i]] = true
	}
	return table
}

// IsResidue reports whether b is a standard amino acid symbol.
func IsResidue(b byte) bool {
	return residueLookup[b]
}

// IsSequence reports whether every symbol of s is a standard amino acid.
func IsSequence(s string) bool {
	for i := 0; i < len(s); i++ {
		if !residueLookup[s[i]] {
			return false
		}
	}
	return true
}
