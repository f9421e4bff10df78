// Package onsekiz provides the OnSekiz API server.

// This package contains no code of its own. The application is organized
// into subpackages:

// - cmd/server: main API server entry point
// - cmd/migrate: standalone schema migration runner
// - cmd/seed: development data seeder
// - internal/handlers: HTTP request handlers for all API endpoints
// - internal/models: data models and database schemas
// - internal/auth: session tokens, signup/login, one-time codes
// - internal/storage: image hosting (Cloudinary) operations
// - internal/database: database connection and migrations
// - internal/email: transactional email via AWS SES
// - internal/middleware: cookie auth, rate limiting, request logging
// - internal/keepalive: self-ping loop for free-tier hosting
// - internal/seed: development database seeding

// See the individual package documentation for detailed API reference.
package onsekiz
