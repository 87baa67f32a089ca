package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/lanes/internal/auth"
	"github.com/gosuda/lanes/internal/domain"
	"github.com/gosuda/lanes/internal/server/middleware"
)

type RegisterInput struct {
	Body struct {
		Email    string `json:"email" minLength:"3" maxLength:"255" doc:"User email"`
		Password string `json:"password" minLength:"8" maxLength:"128" doc:"Password"` //nolint:gosec // G117: login credential DTO
		Name     string `json:"name" minLength:"1" maxLength:"255" doc:"Display name"`
	}
}

type RegisterOutput struct {
	Body struct {
		User         *domain.User `json:"user"`
		AccessToken  string       `json:"access_token"`  //nolint:gosec // G117: auth response DTO
		RefreshToken string       `json:"refresh_token"` //nolint:gosec // G117: auth response DTO
	}
}

type LoginInput struct {
	Body struct {
		Email    string `json:"email" minLength:"3" maxLength:"255" doc:"User email"`
		Password string `json:"password" minLength:"1" maxLength:"128" doc:"Password"` //nolint:gosec // G117: login credential DTO
	}
}

type LoginOutput struct {
	Body struct {
		AccessToken  string `json:"access_token"`  //nolint:gosec // G117: auth response DTO
		RefreshToken string `json:"refresh_token"` //nolint:gosec // G117: auth response DTO
	}
}

type RefreshInput struct {
	Body struct {
		RefreshToken string `json:"refresh_token" minLength:"1" doc:"Refresh token"` //nolint:gosec // G117: token refresh DTO
	}
}

type RefreshOutput struct {
	Body struct {
		AccessToken string `json:"access_token"` //nolint:gosec // G117: auth response DTO
	}
}

type LogoutInput struct {
	Body struct {
		RefreshToken string `json:"refresh_token" minLength:"1" doc:"Refresh token to revoke"` //nolint:gosec // G117: token revocation DTO
	}
}

type OAuthStartInput struct {
	State string `query:"state" doc:"Opaque state echoed back on the callback"`
}

type OAuthStartOutput struct {
	Body struct {
		AuthorizationURL string `json:"authorization_url"`
	}
}

type OAuthCallbackInput struct {
	Code  string `query:"code" minLength:"1" doc:"Authorization code"`
	State string `query:"state" doc:"Opaque state from the start request"`
}

type OAuthCallbackOutput struct {
	Body struct {
		AccessToken  string `json:"access_token"`  //nolint:gosec // G117: auth response DTO
		RefreshToken string `json:"refresh_token"` //nolint:gosec // G117: auth response DTO
	}
}

// RegisterAuthRoutes wires the unauthenticated auth endpoints.
// oauthProvider may be nil when Google OAuth is not configured; the OAuth
// endpoints then respond 501.
func RegisterAuthRoutes(api huma.API, authSvc AuthService, oauthProvider *auth.OAuthProvider) {
	huma.Register(api, huma.Operation{
		OperationID: "register",
		Method:      http.MethodPost,
		Path:        "/auth/register",
		Summary:     "Register a new user",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, input *RegisterInput) (*RegisterOutput, error) {
		user, err := authSvc.Register(ctx, input.Body.Email, input.Body.Password, input.Body.Name)
		if err != nil {
			if errors.Is(err, auth.ErrUserAlreadyExists) {
				return nil, huma.Error409Conflict("user already exists")
			}
			return nil, huma.Error500InternalServerError("failed to register user", err)
		}

		accessToken, refreshToken, err := authSvc.Login(ctx, input.Body.Email, input.Body.Password)
		if err != nil {
			return nil, huma.Error500InternalServerError("registered but failed to issue tokens", err)
		}

		out := &RegisterOutput{}
		out.Body.User = user
		out.Body.AccessToken = accessToken
		out.Body.RefreshToken = refreshToken
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/auth/login",
		Summary:     "Login with email and password",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, input *LoginInput) (*LoginOutput, error) {
		accessToken, refreshToken, err := authSvc.Login(ctx, input.Body.Email, input.Body.Password)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) {
				return nil, huma.Error401Unauthorized("invalid email or password")
			}
			return nil, huma.Error500InternalServerError("login failed", err)
		}

		out := &LoginOutput{}
		out.Body.AccessToken = accessToken
		out.Body.RefreshToken = refreshToken
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "refresh-token",
		Method:      http.MethodPost,
		Path:        "/auth/refresh",
		Summary:     "Refresh access token",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, input *RefreshInput) (*RefreshOutput, error) {
		accessToken, err := authSvc.RefreshToken(ctx, input.Body.RefreshToken)
		if err != nil {
			return nil, huma.Error401Unauthorized("invalid or expired refresh token")
		}

		out := &RefreshOutput{}
		out.Body.AccessToken = accessToken
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "logout",
		Method:      http.MethodPost,
		Path:        "/auth/logout",
		Summary:     "Revoke a refresh token",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, input *LogoutInput) (*struct{}, error) {
		if err := authSvc.Logout(ctx, input.Body.RefreshToken); err != nil {
			return nil, huma.Error500InternalServerError("logout failed", err)
		}
		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "oauth-google-start",
		Method:      http.MethodGet,
		Path:        "/auth/oauth/google",
		Summary:     "Get the Google OAuth authorization URL",
		Tags:        []string{"Auth"},
	}, func(_ context.Context, input *OAuthStartInput) (*OAuthStartOutput, error) {
		if oauthProvider == nil {
			return nil, huma.Error501NotImplemented("Google OAuth is not configured")
		}

		out := &OAuthStartOutput{}
		out.Body.AuthorizationURL = oauthProvider.AuthorizationURL(input.State)
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "oauth-google-callback",
		Method:      http.MethodGet,
		Path:        "/auth/oauth/google/callback",
		Summary:     "Exchange a Google OAuth code for tokens",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, input *OAuthCallbackInput) (*OAuthCallbackOutput, error) {
		if oauthProvider == nil {
			return nil, huma.Error501NotImplemented("Google OAuth is not configured")
		}

		providerID, email, name, avatarURL, err := oauthProvider.ExchangeCode(ctx, input.Code)
		if err != nil {
			return nil, huma.Error401Unauthorized("OAuth code exchange failed")
		}

		accessToken, refreshToken, err := authSvc.LoginOAuth(ctx, oauthProvider.Name, providerID, email, name, avatarURL)
		if err != nil {
			return nil, huma.Error500InternalServerError("OAuth login failed", err)
		}

		out := &OAuthCallbackOutput{}
		out.Body.AccessToken = accessToken
		out.Body.RefreshToken = refreshToken
		return out, nil
	})
}

type MeInput struct{}

type MeOutput struct {
	Body *domain.User
}

// RegisterUserRoutes wires authenticated user endpoints.
func RegisterUserRoutes(api huma.API, authSvc AuthService) {
	huma.Register(api, huma.Operation{
		OperationID: "get-current-user",
		Method:      http.MethodGet,
		Path:        "/me",
		Summary:     "Get the authenticated user",
		Tags:        []string{"Users"},
	}, func(ctx context.Context, _ *MeInput) (*MeOutput, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("missing user context")
		}

		user, err := authSvc.GetUser(ctx, userID)
		if err != nil {
			if errors.Is(err, auth.ErrUserNotFound) {
				return nil, huma.Error404NotFound("user not found")
			}
			return nil, huma.Error500InternalServerError("failed to load user", err)
		}

		return &MeOutput{Body: user}, nil
	})
}
