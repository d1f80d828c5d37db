package tokenpkg

import "fmt"

// NewMaker returns the maker for kind, which is "paseto" or "jwt".
func NewMaker(kind, symmetricKey string) (Maker, error) {
	switch kind {
	case "paseto":
		return NewPasetoMaker(symmetricKey)
	case "jwt":
		return NewJWTMaker(symmetricKey)
	default:
		return nil, fmt.Errorf("unsupported token kind %q", kind)
	}
}
