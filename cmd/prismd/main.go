/*
Prismd starts a Prism parsing server and begins listening for new
connections.

Usage:

	prismd [flags]
	prismd [flags] -l [[ADDRESS]:PORT]

Once started, the server listens for HTTP requests and responds to them
using a REST protocol. By default it listens on :8080. This can be
changed with the --listen/-l flag (or a config file/environment var).

If a JWT token secret is not given, one will be automatically generated
and seeded with random bytes. As a consequence, in this mode of
operation all tokens are rendered invalid as soon as the server shuts
down. This is suitable for testing, but must be given via either the
config file or environment variable if running in production.

The flags are:

	-v, --version
		Give the current version of prismd and then exit.

	-c, --config PATH
		Load operational configuration from the TOML file at PATH. If not
		given, defaults are used, still overridable by environment
		variables (PRISM_LISTEN_ADDRESS, PRISM_TOKEN_SECRET,
		PRISM_STORAGE_DIR).

	-l, --listen LISTEN_ADDRESS
		Listen on the given address, overriding config/environment.

	-s, --secret TOKEN_SECRET
		Use the provided secret for signing JWT tokens, overriding
		config/environment. If empty, a random secret is generated at
		startup and all tokens become invalid at shutdown.

	--storage-dir DIR
		Use a sqlite-backed store rooted at DIR instead of the default
		in-memory store.
*/
package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/prismlang/prism/internal/prism/config"
	"github.com/prismlang/prism/internal/prism/plog"
	"github.com/prismlang/prism/internal/prism/psvc"
	"github.com/prismlang/prism/internal/prism/server"
	"github.com/prismlang/prism/internal/prism/server/serr"
	"github.com/prismlang/prism/internal/prism/store"
	"github.com/prismlang/prism/internal/prism/store/memstore"
	"github.com/prismlang/prism/internal/prism/store/sqlstore"
	"github.com/prismlang/prism/internal/version"
)

var (
	flagVersion    = pflag.BoolP("version", "v", false, "Give the current version of prismd and then exit.")
	flagConfig     = pflag.StringP("config", "c", "", "Load operational configuration from the given TOML file.")
	flagListen     = pflag.StringP("listen", "l", "", "Listen on the given address.")
	flagSecret     = pflag.StringP("secret", "s", "", "Use the given secret for token generation.")
	flagStorageDir = pflag.String("storage-dir", "", "Use a sqlite-backed store rooted at the given directory.")
)

func main() {
	pflag.Parse()

	if *flagVersion {
		fmt.Printf("%s (Prism v%s)\n", version.ServerCurrent, version.Current)
		return
	}

	if args := pflag.Args(); len(args) > 0 {
		fmt.Fprintf(os.Stderr, "Too many arguments\nDo -h for help.\n")
		os.Exit(1)
	}

	var cfg config.Config
	if *flagConfig != "" {
		var err error
		cfg, err = config.Load(*flagConfig)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not load config: %s\n", err)
			os.Exit(1)
		}
	} else {
		cfg = config.Config{}.FillDefaults()
	}

	if pflag.Lookup("listen").Changed {
		cfg.Server.ListenAddress = *flagListen
	}
	if pflag.Lookup("secret").Changed {
		cfg.Server.TokenSecret = *flagSecret
	}
	if pflag.Lookup("storage-dir").Changed {
		cfg.Server.StorageDir = *flagStorageDir
	}

	var tokSecret []byte
	if cfg.Server.TokenSecret != "" {
		tokSecret = []byte(cfg.Server.TokenSecret)
	} else {
		tokSecret = make([]byte, 64)
		if _, err := rand.Read(tokSecret); err != nil {
			fmt.Fprintf(os.Stderr, "Could not generate token secret: %s\n", err)
			os.Exit(1)
		}
		log.Printf("WARN  Using generated token secret; all tokens issued will become invalid at shutdown")
	}

	var db store.Store
	var err error
	if cfg.Server.StorageDir != "" {
		if mkErr := os.MkdirAll(cfg.Server.StorageDir, 0770); mkErr != nil {
			fmt.Fprintf(os.Stderr, "Could not build storage directory: %s\n", mkErr)
			os.Exit(1)
		}
		db, err = sqlstore.New(cfg.Server.StorageDir + "/prism.db")
	} else {
		db = memstore.New()
	}
	if err != nil {
		log.Fatalf("FATAL could not open store: %s", err.Error())
	}

	backend := psvc.Service{DB: db}
	plogger := plog.Default()

	// seed an initial admin so there's someone to log in as.
	admin, err := backend.Register(context.Background(), "admin", "password")
	if err != nil && !errors.Is(err, serr.ErrAlreadyExists) {
		log.Printf("ERROR could not create initial admin user: %v", err)
		os.Exit(2)
	}
	if !errors.Is(err, serr.ErrAlreadyExists) {
		admin.Role = store.RoleAdmin
		if _, err := db.Users().Update(context.Background(), admin.ID, admin); err != nil {
			log.Printf("ERROR could not promote initial admin user: %v", err)
		}
		log.Printf("INFO  Added initial admin user with password 'password'...")
	}

	const unauthDelay = 1 * time.Second
	router := server.NewRouter(backend, tokSecret, unauthDelay, plogger)

	log.Printf("INFO  Starting Prism server %s on %s...", version.ServerCurrent, cfg.Server.ListenAddress)
	if err := http.ListenAndServe(cfg.Server.ListenAddress, router); err != nil {
		log.Fatalf("FATAL server exited: %s", err.Error())
	}
}
