package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/matheuskafuri/summaries/internal/cache"
	"github.com/matheuskafuri/summaries/internal/logctx"
)

const (
	defaultIdentityURL = "https://identitytoolkit.googleapis.com/v1"
	defaultTokenURL    = "https://securetoken.googleapis.com/v1"

	// Tokens closer than this to expiry are refreshed before use.
	refreshMargin = 5 * time.Minute
)

// SessionStore persists the signed-in session between runs.
type SessionStore interface {
	SaveSession(cache.Session) error
	LoadSession() (cache.Session, error)
	DeleteSession() error
}

type FirebaseOpts struct {
	APIKey      string
	Store       SessionStore
	HTTPClient  *http.Client
	IdentityURL string
	TokenURL    string
	Logger      *slog.Logger
}

// Firebase signs users in with email and password through the Firebase Auth
// REST API and keeps their ID token fresh.
type Firebase struct {
	*Broadcaster

	apiKey      string
	store       SessionStore
	http        *http.Client
	identityURL string
	tokenURL    string
	log         *slog.Logger
}

func NewFirebase(opts FirebaseOpts) *Firebase {
	f := &Firebase{
		Broadcaster: NewBroadcaster(),
		apiKey:      opts.APIKey,
		store:       opts.Store,
		http:        opts.HTTPClient,
		identityURL: strings.TrimRight(opts.IdentityURL, "/"),
		tokenURL:    strings.TrimRight(opts.TokenURL, "/"),
		log:         opts.Logger,
	}
	if f.http == nil {
		f.http = &http.Client{Timeout: 15 * time.Second}
	}
	if f.identityURL == "" {
		f.identityURL = defaultIdentityURL
	}
	if f.tokenURL == "" {
		f.tokenURL = defaultTokenURL
	}
	if f.log == nil {
		f.log = slog.Default()
	}
	return f
}

// Restore publishes the stored session, if any. Missing sessions are not an
// error: the current user simply stays nil.
func (f *Firebase) Restore() error {
	s, err := f.store.LoadSession()
	if errors.Is(err, cache.ErrNoSession) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("restoring session: %w", err)
	}
	f.Publish(newFirebaseUser(f, s))
	f.log.Info("session_restored", slog.String("uid", s.UserID))
	return nil
}

type signInRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type signInResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

type refreshResponse struct {
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    string `json:"expires_in"`
	UserID       string `json:"user_id"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (f *Firebase) SignIn(ctx context.Context, email, password string) error {
	const op = "auth.firebase.SignIn"

	if f.apiKey == "" {
		return ErrNotConfigured
	}
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return ErrInvalidCredentials
	}

	body, err := json.Marshal(signInRequest{Email: email, Password: password, ReturnSecureToken: true})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	var resp signInResponse
	endpoint := f.identityURL + "/accounts:signInWithPassword?key=" + url.QueryEscape(f.apiKey)
	if err := f.post(ctx, endpoint, "application/json", bytes.NewReader(body), &resp); err != nil {
		logctx.From(ctx).Warn("sign_in_failed", slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	sess, err := newSession(resp.LocalID, resp.Email, resp.IDToken, resp.RefreshToken, resp.ExpiresIn)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := f.store.SaveSession(sess); err != nil {
		return fmt.Errorf("%s: saving session: %w", op, err)
	}

	f.log.Info("signed_in", slog.String("uid", sess.UserID))
	f.Publish(newFirebaseUser(f, sess))
	return nil
}

func (f *Firebase) SignOut() error {
	if err := f.store.DeleteSession(); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	f.log.Info("signed_out")
	f.Publish(nil)
	return nil
}

func (f *Firebase) refresh(ctx context.Context, refreshToken string) (cache.Session, error) {
	const op = "auth.firebase.refresh"

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	var resp refreshResponse
	endpoint := f.tokenURL + "/token?key=" + url.QueryEscape(f.apiKey)
	if err := f.post(ctx, endpoint, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()), &resp); err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return cache.Session{}, ErrSessionExpired
		}
		return cache.Session{}, fmt.Errorf("%s: %w", op, err)
	}
	return newSession(resp.UserID, "", resp.IDToken, resp.RefreshToken, resp.ExpiresIn)
}

func (f *Firebase) post(ctx context.Context, endpoint, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := f.http.Do(req)
	if err != nil {
		return fmt.Errorf("auth request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var ae apiError
		_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&ae)
		if resp.StatusCode == http.StatusBadRequest && isCredentialError(ae.Error.Message) {
			return ErrInvalidCredentials
		}
		if ae.Error.Message != "" {
			return fmt.Errorf("auth request: status %d: %s", resp.StatusCode, ae.Error.Message)
		}
		return fmt.Errorf("auth request: status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding auth response: %w", err)
	}
	return nil
}

func isCredentialError(msg string) bool {
	// Messages may carry a suffix, e.g. "TOO_MANY_ATTEMPTS_TRY_LATER : ...".
	code, _, _ := strings.Cut(msg, " ")
	switch code {
	case "EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS",
		"INVALID_EMAIL", "USER_DISABLED", "TOKEN_EXPIRED", "INVALID_REFRESH_TOKEN",
		"USER_NOT_FOUND":
		return true
	}
	return false
}

// newSession builds a session from a token response. The ID token's own
// claims win over the response fields when both are present.
func newSession(uid, email, idToken, refreshToken, expiresIn string) (cache.Session, error) {
	if idToken == "" || refreshToken == "" {
		return cache.Session{}, errors.New("token response missing tokens")
	}

	s := cache.Session{
		UserID:       uid,
		Email:        email,
		IDToken:      idToken,
		RefreshToken: refreshToken,
	}
	if secs, err := strconv.Atoi(expiresIn); err == nil {
		s.ExpiresAt = time.Now().Add(time.Duration(secs) * time.Second)
	}

	claims, err := parseIDToken(idToken)
	if err == nil {
		if claims.Subject != "" {
			s.UserID = claims.Subject
		}
		if claims.ExpiresAt != nil {
			s.ExpiresAt = claims.ExpiresAt.Time
		}
		if s.Email == "" {
			s.Email = claims.Email
		}
	}

	if s.UserID == "" {
		return cache.Session{}, errors.New("token response missing user id")
	}
	return s, nil
}

type idTokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// parseIDToken reads the claims without verifying the signature; the backend
// is the party that verifies the token.
func parseIDToken(token string) (*idTokenClaims, error) {
	claims := &idTokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("parsing id token: %w", err)
	}
	return claims, nil
}

// firebaseUser keeps uid and email apart from the session so the UI can
// read them while Token swaps tokens under mu.
type firebaseUser struct {
	f     *Firebase
	uid   string
	email string

	mu   sync.Mutex
	sess cache.Session
}

func newFirebaseUser(f *Firebase, s cache.Session) *firebaseUser {
	return &firebaseUser{f: f, uid: s.UserID, email: s.Email, sess: s}
}

func (u *firebaseUser) ID() string { return u.uid }

func (u *firebaseUser) Email() string { return u.email }

func (u *firebaseUser) Token(ctx context.Context) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if time.Until(u.sess.ExpiresAt) > refreshMargin {
		return u.sess.IDToken, nil
	}

	next, err := u.f.refresh(ctx, u.sess.RefreshToken)
	if errors.Is(err, ErrSessionExpired) {
		logctx.From(ctx).Warn("session_expired", slog.String("uid", u.uid))
		if serr := u.f.SignOut(); serr != nil {
			logctx.From(ctx).Error("sign_out_failed", slog.String("err", serr.Error()))
		}
		return "", err
	}
	if err != nil {
		return "", err
	}

	if next.Email == "" {
		next.Email = u.email
	}
	u.sess = next
	if err := u.f.store.SaveSession(next); err != nil {
		logctx.From(ctx).Warn("session_save_failed", slog.String("err", err.Error()))
	}
	return next.IDToken, nil
}
