package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

const (
	// CallbackPort is the port for the OAuth callback server
	CallbackPort = 8089
	// AuthTimeout is how long to wait for the user to complete auth
	AuthTimeout = 5 * time.Minute
)

var callbackPage = template.Must(template.New("callback").Parse(`<!DOCTYPE html>
<html>
<head><title>Climb Pacer</title></head>
<body style="font-family: system-ui; display: flex; justify-content: center; align-items: center; height: 100vh; margin: 0;">
<div style="text-align: center;">
{{if .Err}}
<h1 style="color: #EF4444;">Login failed</h1>
<p>{{.Err}}</p>
{{else}}
<h1 style="color: #10B981;">Connected{{with .Rider}}{{if .AthleteName}} as {{.AthleteName}}{{end}}{{end}}</h1>
{{with .Rider}}
<p>FTP: {{if .FTP}}{{printf "%.0f W" .FTP}}{{else}}not set on Strava{{end}}</p>
<p>Weight: {{if .Weight}}{{printf "%.1f kg" .Weight}}{{else}}not set on Strava{{end}}</p>
{{end}}
<p>You can close this window and return to the terminal.</p>
{{end}}
</div>
</body>
</html>`))

type callbackOutcome struct {
	result *AuthResult
	err    error
}

// callbackHandler finishes the login inside the browser request so the page
// can show what was imported
type callbackHandler struct {
	ctx     context.Context
	cfg     *oauth2.Config
	state   string
	connect ConnectFunc
	done    chan callbackOutcome
}

func (h *callbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	result, err := h.complete(r)

	status := http.StatusOK
	if err != nil {
		status = http.StatusBadRequest
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	page := struct {
		Rider *ImportedRider
		Err   error
	}{Err: err}
	if result != nil {
		page.Rider = result.Rider
	}
	callbackPage.Execute(w, page)

	// Only the first callback counts
	select {
	case h.done <- callbackOutcome{result: result, err: err}:
	default:
	}
}

func (h *callbackHandler) complete(r *http.Request) (*AuthResult, error) {
	q := r.URL.Query()
	switch {
	case q.Get("state") != h.state:
		return nil, errors.New("state mismatch - possible CSRF attack")
	case q.Get("error") != "":
		return nil, fmt.Errorf("strava denied access: %s", q.Get("error"))
	case q.Get("code") == "":
		return nil, errors.New("no authorization code in callback")
	}

	token, err := h.cfg.Exchange(h.ctx, q.Get("code"))
	if err != nil {
		return nil, fmt.Errorf("exchanging code for token: %w", err)
	}
	result := &AuthResult{Token: token, AthleteID: ExtractAthleteID(token)}

	if h.connect != nil {
		rider, err := h.connect(h.ctx, result)
		if err != nil {
			return nil, err
		}
		result.Rider = rider
	}
	return result, nil
}

// Authenticate runs the OAuth flow with a local callback server. connect,
// if not nil, runs with the new token before the browser gets its answer.
// Instructions for the user are written to out.
func Authenticate(ctx context.Context, cfg *oauth2.Config, out io.Writer, connect ConnectFunc) (*AuthResult, error) {
	state, err := generateState()
	if err != nil {
		return nil, fmt.Errorf("generating state: %w", err)
	}

	handler := &callbackHandler{
		ctx:     ctx,
		cfg:     cfg,
		state:   state,
		connect: connect,
		done:    make(chan callbackOutcome, 1),
	}
	mux := http.NewServeMux()
	mux.Handle("/callback", handler)

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", CallbackPort))
	if err != nil {
		return nil, fmt.Errorf("starting callback server: %w", err)
	}
	server := &http.Server{Handler: mux}
	serveErr := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("callback server: %w", err)
		}
	}()
	defer shutdownServer(server)

	fmt.Fprintf(out, "\nTo connect Strava and import your FTP and weight, open this URL in your browser:\n\n  %s\n\n",
		cfg.AuthCodeURL(state, oauth2.AccessTypeOffline))
	fmt.Fprintln(out, "Waiting for authentication...")

	select {
	case o := <-handler.done:
		return o.result, o.err
	case err := <-serveErr:
		return nil, err
	case <-time.After(AuthTimeout):
		return nil, fmt.Errorf("authentication timeout after %v", AuthTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// generateState creates a random state string for CSRF protection
func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func shutdownServer(server *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	server.Shutdown(ctx)
}
