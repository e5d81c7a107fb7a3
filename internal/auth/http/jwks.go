package http

import (
	"net/http"

	"github.com/nikhilsi/trading-recommendations-app/pkg/authsdk"
	"github.com/nikhilsi/trading-recommendations-app/pkg/httpx"
	"github.com/nikhilsi/trading-recommendations-app/pkg/jwtx"
)

// JWKSHandler exposes the public key set for verifying EdDSA access tokens.
// It is only mounted when the service signs with EdDSA.
//
//	@Summary		Get JWKS
//	@Description	Returns the JSON Web Key Set used to verify EdDSA-signed access tokens. Not available when tokens are signed with HS256.
//	@Tags			well-known
//	@Produce		json
//	@Success		200	{object}	authsdk.JWKSResponse	"The JSON Web Key Set"
//	@Router			/auth/.well-known/jwks.json [get].
func JWKSHandler(keys *jwtx.KeySet) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, authsdk.JWKSResponse(keys.PublicJWKS()))
	}
}
