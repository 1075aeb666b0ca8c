package http

import (
	"net/http"
	"strings"

	"github.com/dkeye/OneVoice/internal/domain"
	"github.com/dkeye/OneVoice/internal/identity"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	identityKey     = "identity"
	sessionTokenKey = "token"
)

// IdentityMiddleware resolves the caller from a bearer token, a ?token=
// query parameter (browsers cannot set headers on websockets) or the
// session cookie, in that order. A verified explicit token is remembered
// in the cookie. Requests without a valid token pass through anonymous.
func IdentityMiddleware(v *identity.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)
		token, explicit := bearer(c.GetHeader("Authorization")), true
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			token, _ = sess.Get(sessionTokenKey).(string)
			explicit = false
		}
		if token == "" {
			c.Next()
			return
		}

		who, err := v.Verify(token)
		if err != nil {
			log.Debug().Str("module", "adapters.http").Err(err).Msg("rejected token")
			if !explicit {
				sess.Delete(sessionTokenKey)
				_ = sess.Save()
			}
			c.Next()
			return
		}
		c.Set(identityKey, who)
		if explicit && sess.Get(sessionTokenKey) != token {
			sess.Set(sessionTokenKey, token)
			if err := sess.Save(); err != nil {
				log.Warn().Str("module", "adapters.http").Err(err).Msg("save session cookie")
			}
		}
		c.Next()
	}
}

func bearer(h string) string {
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// CurrentIdentity reports the caller resolved by IdentityMiddleware.
func CurrentIdentity(c *gin.Context) (domain.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return domain.Identity{}, false
	}
	who, ok := v.(domain.Identity)
	return who, ok
}

func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentIdentity(c); !ok {
			c.Header("WWW-Authenticate", "Bearer")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "not authenticated"})
			return
		}
		c.Next()
	}
}

func caller(c *gin.Context) domain.Identity {
	who, _ := CurrentIdentity(c)
	return who
}
