package jwtx

// Supported signing algorithms.
const (
	AlgorithmHS256 = "HS256"
	AlgorithmEdDSA = "EdDSA"
)

// Signer is anything that can sign our claims.
type Signer interface {
	Alg() string
	KID() string
	Sign(Claims) (string, error)
}

// PublicSigner is a Signer whose verification key may be published.
type PublicSigner interface {
	Signer
	PublicJWK() JWK
}
