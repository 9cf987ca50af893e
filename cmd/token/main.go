package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/crm-ia/internal/domain"
	"github.com/seu-repo/crm-ia/internal/service/auth"
	"github.com/seu-repo/crm-ia/pkg/config"
)

var (
	userID   = flag.String("user", "", "User ID written to the sub claim (required)")
	role     = flag.String("role", string(domain.TeamRoleSales), "Team role: admin, manager or sales")
	org      = flag.String("org", "", "Organisation ID")
	duration = flag.Duration("ttl", 0, "Token lifetime, defaults to jwt.access_duration")
	verbose  = flag.Bool("verbose", false, "Enable verbose logging")
)

// token mints an access token for the API and websocket routes, signed with
// the configured JWT secret.
func main() {
	flag.Parse()

	var logger *zap.Logger
	var err error
	if *verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger = zap.NewNop()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *userID == "" {
		fmt.Fprintln(os.Stderr, "-user is required")
		flag.Usage()
		os.Exit(2)
	}

	switch domain.TeamRole(*role) {
	case domain.TeamRoleAdmin, domain.TeamRoleManager, domain.TeamRoleSales:
	default:
		fmt.Fprintf(os.Stderr, "Unknown role %q\n", *role)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if cfg.JWT.Secret == "" {
		fmt.Fprintln(os.Stderr, "jwt.secret is not configured (set JWT_SECRET)")
		os.Exit(1)
	}

	ttl := cfg.JWT.AccessDuration
	if *duration > 0 {
		ttl = *duration
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, ttl, nil, logger)
	token, err := jwtService.GenerateAccessToken(&domain.User{
		ID:             *userID,
		TeamRole:       domain.TeamRole(*role),
		OrganisationID: *org,
		CreatedAt:      time.Now(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to generate token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
}
