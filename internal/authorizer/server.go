package authorizer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc"
	authorizationv1 "k8s.io/api/authorization/v1"
	"k8s.io/apiserver/pkg/authentication/user"

	"antware.xyz/authgate/internal/alerts"
	"antware.xyz/authgate/internal/audit"
	"antware.xyz/authgate/internal/engine"
)

// Server exposes the engine over HTTP. /authorize speaks the
// SubjectAccessReview wire format, so any webhook-authorizer client can act
// as an auth-check caller.
type Server struct {
	engine *engine.Engine
	audit  *audit.Log
	alerts *alerts.Manager
	config ServerConfig
}

type ServerConfig struct {
	// OIDCIssuer and OIDCClientID enable bearer-token verification on the
	// query endpoints. Transport auth only; the evaluated identity always
	// comes from the review body. Empty issuer disables the middleware.
	OIDCIssuer   string
	OIDCClientID string
}

func NewServer(eng *engine.Engine, auditLog *audit.Log, alertMgr *alerts.Manager, config ServerConfig) *Server {
	return &Server{
		engine: eng,
		audit:  auditLog,
		alerts: alertMgr,
		config: config,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/authorize", s.authMiddleware(
		http.HandlerFunc(s.authorize),
	))

	mux.Handle("/permissions", s.authMiddleware(
		http.HandlerFunc(s.listPermissions),
	))

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, err := fmt.Fprint(w, "ok")

		if err != nil {
			log.Printf("Error: %s\n", err)
		}
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, err := fmt.Fprint(w, "ready")

		if err != nil {
			log.Printf("Error: %s\n", err)
		}
	})

	return mux
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	if s.config.OIDCIssuer == "" {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)
		if token == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		provider, err := oidc.NewProvider(context.Background(), s.config.OIDCIssuer)
		if err != nil {
			http.Error(w, "OIDC error", http.StatusInternalServerError)
			return
		}

		verifier := provider.Verifier(&oidc.Config{ClientID: s.config.OIDCClientID})
		_, err = verifier.Verify(context.Background(), token)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

func (s *Server) authorize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var review authorizationv1.SubjectAccessReview
	if err := json.NewDecoder(r.Body).Decode(&review); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	attrs := review.Spec.ResourceAttributes
	if review.Spec.User == "" || attrs == nil {
		http.Error(w, "spec.user and spec.resourceAttributes are required", http.StatusBadRequest)
		return
	}

	id := engine.IdentityFromUser(&user.DefaultInfo{
		Name:   review.Spec.User,
		UID:    review.Spec.UID,
		Groups: review.Spec.Groups,
	})
	res := engine.ResourceDescriptor{
		APIGroup:    attrs.Group,
		Resource:    attrs.Resource,
		Subresource: attrs.Subresource,
		Namespace:   attrs.Namespace,
		Name:        attrs.Name,
	}

	decision, err := s.engine.Decide(id, attrs.Verb, res)
	if err != nil {
		// A corrupted index is an engine fault, never a deny.
		s.alerts.ReportCorruption(r.Context(), err)
		http.Error(w, "authorization engine error", http.StatusInternalServerError)
		return
	}

	s.audit.RecordDecision(id, attrs.Verb, res, decision)

	// No reason detail on a deny: the response must not reveal whether the
	// resource exists.
	review.Status = authorizationv1.SubjectAccessReviewStatus{
		Allowed: decision.Allowed,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(&review); err != nil {
		log.Printf("Error: %s\n", err)
	}
}

func (s *Server) listPermissions(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("user")
	if username == "" {
		http.Error(w, "user query parameter is required", http.StatusBadRequest)
		return
	}
	groups := r.URL.Query()["group"]

	id := engine.IdentityFromUsername(username, groups)
	entries := s.engine.ListPermissions(id)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(entries); err != nil {
		log.Printf("Error: %s\n", err)
	}
}
