// Command redis_account_debug lists accounts held by the Redis account store
// together with any pending OTP. Dev only: it prints codes in clear.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

func main() {
	var (
		addr    = flag.String("addr", "127.0.0.1:6379", "redis address host:port")
		pass    = flag.String("pass", "", "redis password")
		db      = flag.Int("db", 0, "redis db")
		prefix  = flag.String("prefix", "account:", "account key prefix")
		email   = flag.String("email", "", "only show this email")
		doDel   = flag.Bool("del", false, "delete matched accounts and their email index")
		limit   = flag.Int64("count", 200, "SCAN COUNT hint")
		timeout = flag.Duration("timeout", 2*time.Second, "per-command timeout")
	)
	flag.Parse()

	rdb := goredis.NewClient(&goredis.Options{
		Addr:     *addr,
		Password: *pass,
		DB:       *db,
	})
	defer rdb.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	err := rdb.Ping(ctx).Err()
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "redis ping failed: %v\n", err)
		os.Exit(1)
	}

	want := strings.ToLower(strings.TrimSpace(*email))
	indexPrefix := *prefix + "email:"

	var cursor uint64
	total := 0
	for {
		ctxScan, cancelScan := context.WithTimeout(context.Background(), *timeout)
		keys, next, err := rdb.Scan(ctxScan, cursor, *prefix+"*", *limit).Result()
		cancelScan()
		if err != nil {
			fmt.Fprintf(os.Stderr, "SCAN error: %v\n", err)
			os.Exit(1)
		}

		for _, k := range keys {
			if strings.HasPrefix(k, indexPrefix) {
				continue
			}

			ctxCmd, cancelCmd := context.WithTimeout(context.Background(), *timeout)
			h, err := rdb.HGetAll(ctxCmd, k).Result()
			cancelCmd()
			if err != nil {
				fmt.Printf("%s: HGETALL error: %v\n", k, err)
				continue
			}
			if want != "" && h["email"] != want {
				continue
			}

			total++
			fmt.Printf("%d) %s\n   email=%s role=%s verified=%s\n", total, k, h["email"], h["role"], h["verified"])
			if h["otp_code"] != "" {
				fmt.Printf("   otp=%s purpose=%s expires_at=%s\n", h["otp_code"], h["otp_purpose"], h["otp_expires_at"])
			}

			if *doDel {
				ctxDel, cancelDel := context.WithTimeout(context.Background(), *timeout)
				n, err := rdb.Del(ctxDel, k, indexPrefix+h["email"]).Result()
				cancelDel()
				if err != nil {
					fmt.Printf("   DEL error: %v\n", err)
				} else {
					fmt.Printf("   DEL ok: %d\n", n)
				}
			}
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	if total == 0 {
		fmt.Println("No accounts matched.")
	}
}
