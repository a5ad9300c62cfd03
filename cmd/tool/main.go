// Command tool mints session tokens for load tests and manual probing.
// Tokens are signed exactly like the service signs them, so the secret and
// issuer must match the target deployment.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/baechuer/movie-review/services/auth-service/internal/application/auth"
	"github.com/baechuer/movie-review/services/auth-service/internal/domain"
	"github.com/baechuer/movie-review/services/auth-service/internal/infrastructure/security"
)

func main() {
	var (
		secret  = flag.String("secret", os.Getenv("JWT_SECRET"), "signing secret (defaults to $JWT_SECRET)")
		issuer  = flag.String("issuer", "movie-review-auth", "token issuer")
		count   = flag.Int("n", 1, "number of tokens")
		role    = flag.String("role", "user", "role claim: user or admin")
		account = flag.String("account", "", "account id (random per token when empty)")
		email   = flag.String("email", "", "email claim (user-<i>@example.com when empty)")
		ttl     = flag.Duration("ttl", time.Hour, "token lifetime")
		out     = flag.String("out", "", "write tokens here, one per line (stdout when empty)")
		probe   = flag.String("probe", "", "base URL; GET <probe>/auth/v1/me with the first token")
	)
	flag.Parse()

	if err := run(*secret, *issuer, *count, *role, *account, *email, *ttl, *out, *probe); err != nil {
		fmt.Fprintln(os.Stderr, "tool:", err)
		os.Exit(1)
	}
}

func run(secret, issuer string, count int, role, account, email string, ttl time.Duration, out, probe string) error {
	if secret == "" {
		return fmt.Errorf("secret is required")
	}
	r, err := domain.ParseRole(role)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	bw := bufio.NewWriter(w)
	defer bw.Flush()

	issuerImpl := security.NewJWTIssuer(secret, issuer, time.Now)

	var first string
	for i := 0; i < count; i++ {
		c := auth.Claims{AccountID: account, Email: email, Role: r}
		if c.AccountID == "" {
			c.AccountID = uuid.NewString()
		}
		if c.Email == "" {
			c.Email = fmt.Sprintf("user-%d@example.com", i)
		}

		tok, err := issuerImpl.Issue(c, ttl)
		if err != nil {
			return err
		}
		if i == 0 {
			first = tok
		}
		if _, err := fmt.Fprintln(bw, tok); err != nil {
			return err
		}
	}

	if probe == "" || first == "" {
		return nil
	}
	return probeMe(probe, first)
}

func probeMe(baseURL, token string) error {
	req, err := http.NewRequest(http.MethodGet, baseURL+"/auth/v1/me", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	fmt.Fprintf(os.Stderr, "GET /auth/v1/me -> %d %s\n", resp.StatusCode, body)
	return nil
}
