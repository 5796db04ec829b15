// Package mocks provides gomock implementations of the identity ports.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for our port interfaces.
// The mocks are generated using go:generate directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	sdk := mocks.NewMockClientSDK(ctrl)
//	sdk.EXPECT().IsLoggedIn(gomock.Any()).Return(true, nil)
package mocks

// Generate mock for ClientSDK interface from internal/ports package.
// This creates MockClientSDK with methods for all ClientSDK interface methods:
// Init, IsLoggedIn, Login, GetAccessToken, GetProfile, IsInClient
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=client_sdk_mock.go github.com/target/food-identity-gateway/internal/ports ClientSDK

// Generate mock for UserRepository interface from internal/ports package.
// This creates MockUserRepository with methods for all UserRepository interface methods:
// UpsertByLineID, GetByID, SetRole
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=user_repository_mock.go github.com/target/food-identity-gateway/internal/ports UserRepository
