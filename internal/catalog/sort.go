package catalog

import "sort"

// sortNatural sorts strings so that runs of digits compare as integers:
// "img2" sorts before "img10". Comparison outside digit runs is plain
// byte order.
func sortNatural(items []string) {
	sort.Slice(items, func(i, j int) bool {
		return naturalLess(items[i], items[j])
	})
}

func naturalLess(a, b string) bool {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		ca, cb := a[i], b[j]

		if isDigit(ca) && isDigit(cb) {
			// Compare whole digit runs numerically. Leading zeros are
			// skipped so "007" and "7" compare equal in value; ties fall
			// through to the remaining text.
			ia, ja := i, j
			for ia < len(a) && a[ia] == '0' {
				ia++
			}
			for ja < len(b) && b[ja] == '0' {
				ja++
			}
			ea, eb := ia, ja
			for ea < len(a) && isDigit(a[ea]) {
				ea++
			}
			for eb < len(b) && isDigit(b[eb]) {
				eb++
			}
			// Longer significant run means bigger number.
			if la, lb := ea-ia, eb-ja; la != lb {
				return la < lb
			}
			if run, runB := a[ia:ea], b[ja:eb]; run != runB {
				return run < runB
			}
			i, j = ea, eb
			continue
		}

		if ca != cb {
			return ca < cb
		}
		i++
		j++
	}
	return len(a)-i < len(b)-j
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
