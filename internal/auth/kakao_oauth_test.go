package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// newKakaoTestServer はトークン交換とユーザー情報取得を模擬するテストサーバーを返す。
func newKakaoTestServer(t *testing.T, tokenStatus, userStatus int, userBody string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("token endpoint method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); !strings.Contains(ct, "application/x-www-form-urlencoded") {
			t.Errorf("token endpoint Content-Type = %s", ct)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("failed to parse form: %v", err)
		}
		if gt := r.PostFormValue("grant_type"); gt != "authorization_code" {
			t.Errorf("grant_type = %q, want authorization_code", gt)
		}
		w.WriteHeader(tokenStatus)
		w.Write([]byte(`{"access_token":"kakao-access-token","token_type":"bearer","expires_in":21599}`))
	})
	mux.HandleFunc("/v2/user/me", func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer kakao-access-token" {
			t.Errorf("Authorization = %q, want Bearer kakao-access-token", auth)
		}
		w.WriteHeader(userStatus)
		w.Write([]byte(userBody))
	})
	return httptest.NewServer(mux)
}

func newTestProvider(serverURL string) *KakaoOAuthProvider {
	return NewKakaoOAuthProvider(KakaoOAuthConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "https://app.example.com/callback",
		TokenURL:     serverURL + "/oauth/token",
		UserInfoURL:  serverURL + "/v2/user/me",
	}, nil)
}

func TestGetLoginURL_ContainsRequiredParams(t *testing.T) {
	provider := NewKakaoOAuthProvider(KakaoOAuthConfig{
		ClientID:    "my-client",
		RedirectURL: "https://app.example.com/callback",
	}, nil)

	url := provider.GetLoginURL("state-xyz")

	wantParts := []string{
		"https://kauth.kakao.com/oauth/authorize?",
		"client_id=my-client",
		"response_type=code",
		"state=state-xyz",
	}
	for _, part := range wantParts {
		if !strings.Contains(url, part) {
			t.Errorf("GetLoginURL() = %q, expected to contain %q", url, part)
		}
	}
}

func TestExchangeCode_Success(t *testing.T) {
	userBody := `{
		"id": 987654321,
		"properties": {"nickname": "本の虫", "profile_image": "https://img.example.com/p.jpg"}
	}`
	server := newKakaoTestServer(t, http.StatusOK, http.StatusOK, userBody)
	defer server.Close()

	provider := newTestProvider(server.URL)
	info, err := provider.ExchangeCode(context.Background(), "auth-code")
	if err != nil {
		t.Fatalf("ExchangeCode() error = %v", err)
	}

	if info.ProviderUserID != "987654321" {
		t.Errorf("ProviderUserID = %q, want %q", info.ProviderUserID, "987654321")
	}
	if info.Nickname != "本の虫" {
		t.Errorf("Nickname = %q, want %q", info.Nickname, "本の虫")
	}
	if info.ProfileImage != "https://img.example.com/p.jpg" {
		t.Errorf("ProfileImage = %q", info.ProfileImage)
	}
	if info.Provider != "kakao" {
		t.Errorf("Provider = %q, want kakao", info.Provider)
	}
}

func TestExchangeCode_FallsBackToAccountProfile(t *testing.T) {
	// propertiesが空の場合はkakao_account.profileを使用する
	userBody := `{
		"id": 111,
		"kakao_account": {"profile": {"nickname": "読書家", "profile_image_url": "https://img.example.com/a.jpg"}}
	}`
	server := newKakaoTestServer(t, http.StatusOK, http.StatusOK, userBody)
	defer server.Close()

	provider := newTestProvider(server.URL)
	info, err := provider.ExchangeCode(context.Background(), "auth-code")
	if err != nil {
		t.Fatalf("ExchangeCode() error = %v", err)
	}

	if info.Nickname != "読書家" {
		t.Errorf("Nickname = %q, want %q", info.Nickname, "読書家")
	}
	if info.ProfileImage != "https://img.example.com/a.jpg" {
		t.Errorf("ProfileImage = %q", info.ProfileImage)
	}
}

func TestExchangeCode_TokenEndpointError(t *testing.T) {
	server := newKakaoTestServer(t, http.StatusUnauthorized, http.StatusOK, `{}`)
	defer server.Close()

	provider := newTestProvider(server.URL)
	if _, err := provider.ExchangeCode(context.Background(), "bad-code"); err == nil {
		t.Fatal("ExchangeCode() = nil, want error for token endpoint failure")
	}
}

func TestExchangeCode_UserInfoEndpointError(t *testing.T) {
	server := newKakaoTestServer(t, http.StatusOK, http.StatusForbidden, `{}`)
	defer server.Close()

	provider := newTestProvider(server.URL)
	if _, err := provider.ExchangeCode(context.Background(), "auth-code"); err == nil {
		t.Fatal("ExchangeCode() = nil, want error for user info failure")
	}
}

func TestExchangeCode_MissingUserID(t *testing.T) {
	server := newKakaoTestServer(t, http.StatusOK, http.StatusOK, `{"properties":{"nickname":"x"}}`)
	defer server.Close()

	provider := newTestProvider(server.URL)
	if _, err := provider.ExchangeCode(context.Background(), "auth-code"); err == nil {
		t.Fatal("ExchangeCode() = nil, want error for missing user id")
	}
}
