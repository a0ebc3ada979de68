package auth

import (
	"context"
	"crypto/subtle"
)

type bearerAuthenticator struct {
	validateFunc func(token string) (identity string, err error)
}

// BearerAuth creates an Authenticator from a validation function.
//
// Example:
//
//	auth := BearerAuth(func(token string) (string, error) {
//	    user, err := validateWithMyBackend(token)
//	    if err != nil {
//	        return "", ErrUnauthenticated
//	    }
//	    return user.ID, nil
//	})
func BearerAuth(validateFunc func(token string) (identity string, err error)) Authenticator {
	return &bearerAuthenticator{validateFunc: validateFunc}
}

func (b *bearerAuthenticator) Authenticate(ctx context.Context, token string) (string, error) {
	return b.validateFunc(token)
}

// StaticTokens accepts a fixed set of tokens, mapped to their identities.
// Tokens are compared in constant time.
func StaticTokens(tokens map[string]string) Authenticator {
	known := make([]staticToken, 0, len(tokens))
	for token, identity := range tokens {
		known = append(known, staticToken{token: []byte(token), identity: identity})
	}
	return BearerAuth(func(token string) (string, error) {
		for _, k := range known {
			if subtle.ConstantTimeCompare(k.token, []byte(token)) == 1 {
				return k.identity, nil
			}
		}
		return "", ErrUnauthenticated
	})
}

type staticToken struct {
	token    []byte
	identity string
}
