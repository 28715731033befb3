package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/desertthunder/strum/internal/shared"
	"golang.org/x/oauth2"
)

// cachedCredential is the JSON shape of the on-disk cache artifact.
type cachedCredential struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	Expiry       time.Time `json:"expiry"`
	Scopes       []string  `json:"scopes"`
}

// readCache loads the credential cache artifact from path.
//
// A missing file returns os.ErrNotExist unwrapped; an unreadable or
// undecodable file returns [shared.ErrCacheCorrupt] so callers can treat it as
// a cache miss.
func readCache(path string) (*oauth2.Token, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("%w: %v", shared.ErrCacheCorrupt, err)
	}

	var cred cachedCredential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", shared.ErrCacheCorrupt, err)
	}
	if cred.AccessToken == "" && cred.RefreshToken == "" {
		return nil, nil, fmt.Errorf("%w: empty credential", shared.ErrCacheCorrupt)
	}

	tok := &oauth2.Token{
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
		TokenType:    cred.TokenType,
		Expiry:       cred.Expiry,
	}
	return tok, cred.Scopes, nil
}

// writeCache persists the credential atomically: write to a temp file in the
// same directory, then rename over the artifact.
func writeCache(path string, tok *oauth2.Token, scopes []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	cred := cachedCredential{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		Expiry:       tok.Expiry,
		Scopes:       scopes,
	}

	data, err := json.MarshalIndent(cred, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credential: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".token-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write credential: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to chmod credential: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace cache artifact: %w", err)
	}

	return nil
}
