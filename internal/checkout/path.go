// Package checkout turns a priced quote into the exact contract call
// parameters of a purchase transaction.
package checkout

import "strings"

// A packed swap route alternates 20-byte pool/token addresses with 3-byte
// fee-tier segments, starting and ending on an address.
const (
	addressHexLen     = 40
	tickSpacingHexLen = 6
)

// FlipPath reverses the hop order of a packed multi-hop route. Aggregators
// return routes in forward order, while the fee-collector contract executes
// the swap from the opposite end and expects hops in call order. Returns ""
// for an empty route.
func FlipPath(path string) string {
	raw := strings.TrimPrefix(path, "0x")
	if raw == "" {
		return ""
	}

	var segments []string
	for start, i := 0, 0; start < len(raw); i++ {
		segLen := addressHexLen
		if i%2 == 1 {
			segLen = tickSpacingHexLen
		}
		end := start + segLen
		if end > len(raw) {
			end = len(raw)
		}
		segments = append(segments, raw[start:end])
		start = end
	}

	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}

	return "0x" + strings.Join(segments, "")
}
