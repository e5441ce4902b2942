package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"google.golang.org/api/drive/v3"

	"github.com/vfa-khuongdv/lazy-prune/pkg/retention"
)

// newServiceAccountJSON builds a service account key pointing at tokenURL
func newServiceAccountJSON(t *testing.T, tokenURL string) []byte {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)

	data, err := json.Marshal(map[string]string{
		"type":           "service_account",
		"project_id":     "lazy-prune-test",
		"private_key_id": "test-key-id",
		"private_key":    string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})),
		"client_email":   "pruner@lazy-prune-test.iam.gserviceaccount.com",
		"client_id":      "1234567890",
		"token_uri":      tokenURL,
	})
	require.NoError(t, err)
	return data
}

// AuthServiceTestSuite for service account auth tests
type AuthServiceTestSuite struct {
	suite.Suite
	server      *httptest.Server
	tokenStatus int
	tokenCalls  int
}

func (suite *AuthServiceTestSuite) SetupTest() {
	suite.tokenStatus = http.StatusOK
	suite.tokenCalls = 0
	suite.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		suite.tokenCalls++
		suite.Equal(http.MethodPost, r.Method)
		suite.NoError(r.ParseForm())
		suite.Equal("urn:ietf:params:oauth:grant-type:jwt-bearer", r.PostForm.Get("grant_type"))

		w.Header().Set("Content-Type", "application/json")
		if suite.tokenStatus != http.StatusOK {
			w.WriteHeader(suite.tokenStatus)
			w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid JWT Signature."}`))
			return
		}
		w.Write([]byte(`{"access_token":"test-access-token","token_type":"Bearer","expires_in":3600}`))
	}))
}

func (suite *AuthServiceTestSuite) TearDownTest() {
	suite.server.Close()
}

func TestAuthServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}

func (suite *AuthServiceTestSuite) TestNewService_DefaultScope() {
	service, err := NewService(newServiceAccountJSON(suite.T(), suite.server.URL))
	suite.Require().NoError(err)
	suite.Equal("pruner@lazy-prune-test.iam.gserviceaccount.com", service.ClientEmail())
	suite.Equal([]string{drive.DriveScope}, service.Scopes())
}

func (suite *AuthServiceTestSuite) TestNewService_CustomScope() {
	service, err := NewService(newServiceAccountJSON(suite.T(), suite.server.URL), "https://www.googleapis.com/auth/devstorage.read_write")
	suite.Require().NoError(err)
	suite.Equal([]string{"https://www.googleapis.com/auth/devstorage.read_write"}, service.Scopes())
}

func (suite *AuthServiceTestSuite) TestAuthenticate_Success() {
	service, err := NewService(newServiceAccountJSON(suite.T(), suite.server.URL))
	suite.Require().NoError(err)

	info := service.GetTokenInfo()
	suite.False(info.HasToken)

	source, err := service.Authenticate(context.Background())
	suite.Require().NoError(err)

	token, err := source.Token()
	suite.NoError(err)
	suite.Equal("test-access-token", token.AccessToken)
	suite.Equal(1, suite.tokenCalls, "token should be reused, not exchanged twice")

	info = service.GetTokenInfo()
	suite.True(info.HasToken)
	suite.True(info.Valid)
	suite.False(info.Expiry.IsZero())
}

func (suite *AuthServiceTestSuite) TestAuthenticate_Rejected() {
	suite.tokenStatus = http.StatusBadRequest

	service, err := NewService(newServiceAccountJSON(suite.T(), suite.server.URL))
	suite.Require().NoError(err)

	source, err := service.Authenticate(context.Background())
	suite.Nil(source)
	suite.ErrorIs(err, retention.ErrAuthentication)
	suite.Contains(err.Error(), "pruner@lazy-prune-test.iam.gserviceaccount.com")
	suite.False(service.GetTokenInfo().HasToken)
}

func TestNewService_InvalidCredentials(t *testing.T) {
	tests := []struct {
		name        string
		credentials []byte
	}{
		{name: "empty", credentials: nil},
		{name: "malformed json", credentials: []byte(`{"type": "service_account",`)},
		{name: "not a service account", credentials: []byte(`{"type":"authorized_user","client_id":"x"}`)},
		{name: "missing private key", credentials: []byte(`{"type":"service_account","client_email":"a@b.c"}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, err := NewService(tt.credentials)
			assert.Nil(t, service)
			assert.ErrorIs(t, err, retention.ErrConfiguration)
		})
	}
}
