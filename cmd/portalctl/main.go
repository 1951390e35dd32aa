package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	fmt "github.com/jhunt/go-ansi"
	"github.com/jhunt/go-cli"
	"github.com/joho/godotenv"

	"campushub/portal/internal/api"
	"campushub/portal/internal/auth"
	"campushub/portal/internal/config"
	"campushub/portal/internal/guard"
	"campushub/portal/internal/model"
	"campushub/portal/internal/notify"
	"campushub/portal/internal/session"
)

func bail(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "@R{!!! %s}\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Printf("USAGE: @G{portalctl} COMMAND [ARGS]\n\n")
	fmt.Printf("  @G{login} EMAIL PASSWORD              log in and persist the session\n")
	fmt.Printf("  @G{register} EMAIL PASSWORD FIRST LAST [--role ROLE] [--department DEPT]\n")
	fmt.Printf("  @G{logout}                            clear the stored session\n")
	fmt.Printf("  @G{whoami}                            show the current principal\n")
	fmt.Printf("  @G{refresh}                           rotate the token pair\n")
	fmt.Printf("  @G{open} PATH                         evaluate route access for PATH\n")
	fmt.Printf("  @G{routes}                            list the portal route table\n")
	fmt.Printf("  @G{notifications} [-w]                list notifications (-w keeps polling)\n")
	fmt.Printf("  @G{read} ID | @G{read-all} | @G{rm} ID | @G{clear}\n")
}

type options struct {
	Help       bool   `cli:"-h, --help"`
	Watch      bool   `cli:"-w, --watch"`
	Role       string `cli:"--role"`
	Department string `cli:"--department"`

	Login         struct{} `cli:"login"`
	Register      struct{} `cli:"register"`
	Logout        struct{} `cli:"logout"`
	Whoami        struct{} `cli:"whoami"`
	Refresh       struct{} `cli:"refresh"`
	Open          struct{} `cli:"open"`
	Routes        struct{} `cli:"routes"`
	Notifications struct{} `cli:"notifications"`
	Read          struct{} `cli:"read"`
	ReadAll       struct{} `cli:"read-all"`
	Rm            struct{} `cli:"rm"`
	Clear         struct{} `cli:"clear"`
}

func main() {
	var opt options
	opt.Role = "student"

	command, args, err := cli.Parse(&opt)
	bail(err)
	if opt.Help || command == "" {
		usage()
		os.Exit(0)
	}

	_ = godotenv.Load()
	cfg := config.Load()

	sessions, err := session.NewStore(cfg.StateDir)
	bail(err)
	client := api.NewClient(cfg.APIBaseURL, cfg.RequestTimeout, sessions)
	gateway := auth.NewGateway(client, sessions)
	syncer := notify.NewSyncer(client, cfg.PollInterval, cfg.RequestTimeout)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	defer cancel()

	switch command {
	case "login":
		if len(args) != 2 {
			bail(fmt.Errorf("usage: portalctl login EMAIL PASSWORD"))
		}
		sess, err := gateway.Login(ctx, args[0], args[1])
		bail(err)
		fmt.Printf("@G{logged in} as %s (%s)\n", sess.Principal.DisplayName(), sess.Principal.Role)
		fmt.Printf("home: %s\n", guard.HomePath(sess.Principal.Role))

	case "register":
		if len(args) != 4 {
			bail(fmt.Errorf("usage: portalctl register EMAIL PASSWORD FIRST LAST"))
		}
		role, err := model.ParseRole(opt.Role)
		bail(err)
		sess, err := gateway.Register(ctx, auth.RegisterProfile{
			Email:      args[0],
			Password:   args[1],
			FirstName:  args[2],
			LastName:   args[3],
			Role:       role,
			Department: opt.Department,
		})
		bail(err)
		fmt.Printf("@G{registered} %s as %s\n", sess.Principal.Email, sess.Principal.Role)

	case "logout":
		gateway.Logout()
		fmt.Printf("@G{logged out}\n")

	case "whoami":
		sess, ok := sessions.Get()
		if !ok {
			fmt.Printf("@Y{not logged in}\n")
			os.Exit(1)
		}
		if sess.Principal != nil {
			fmt.Printf("%s <%s>\n", sess.Principal.DisplayName(), sess.Principal.Email)
			fmt.Printf("role: @C{%s}  department: %s\n", sess.Principal.Role, sess.Principal.Department)
		}
		if exp, err := auth.TokenExpiresAt(sess.Token); err == nil {
			state := "@G{valid}"
			if auth.TokenExpired(sess.Token, time.Now()) {
				state = "@R{expired}"
			}
			fmt.Printf("access token: %s (expires %s)\n", state, exp.Local().Format(time.RFC822))
		}

	case "refresh":
		sess, err := gateway.Refresh(ctx)
		bail(err)
		if exp, err := auth.TokenExpiresAt(sess.Token); err == nil {
			fmt.Printf("@G{refreshed}; access token now expires %s\n", exp.Local().Format(time.RFC822))
		} else {
			fmt.Printf("@G{refreshed}\n")
		}

	case "open":
		if len(args) != 1 {
			bail(fmt.Errorf("usage: portalctl open PATH"))
		}
		req, guarded := guard.RequestFor(args[0])
		if !guarded {
			fmt.Printf("@G{public route}; no guard applies to %s\n", args[0])
			return
		}
		decision := guard.Evaluate(sessions, req)
		if decision.Outcome == guard.Allowed {
			fmt.Printf("@G{allowed} -> %s\n", args[0])
			return
		}
		fmt.Printf("@R{%s}; redirecting to %s\n", decision.Outcome, decision.Redirect)
		os.Exit(1)

	case "routes":
		for _, route := range guard.Table {
			if !route.Protected {
				fmt.Printf("%-18s @Y{public}\n", route.Prefix)
				continue
			}
			if len(route.Roles) == 0 {
				fmt.Printf("%-18s any authenticated user\n", route.Prefix)
				continue
			}
			fmt.Printf("%-18s roles: @C{%v}\n", route.Prefix, route.Roles)
		}

	case "notifications":
		if opt.Watch {
			watch(cfg, sessions, syncer)
			return
		}
		bail(syncer.Refresh(ctx))
		printNotifications(syncer)

	case "read":
		if len(args) != 1 {
			bail(fmt.Errorf("usage: portalctl read ID"))
		}
		bail(syncer.Refresh(ctx))
		bail(syncer.MarkRead(ctx, args[0]))
		fmt.Printf("@G{marked read}; %d unread\n", syncer.UnreadCount())

	case "read-all":
		bail(syncer.Refresh(ctx))
		bail(syncer.MarkAllRead(ctx))
		fmt.Printf("@G{all read}\n")

	case "rm":
		if len(args) != 1 {
			bail(fmt.Errorf("usage: portalctl rm ID"))
		}
		bail(syncer.Refresh(ctx))
		bail(syncer.Delete(ctx, args[0]))
		fmt.Printf("@G{deleted}; %d notifications left\n", len(syncer.Notifications()))

	case "clear":
		bail(syncer.ClearAll(ctx))
		fmt.Printf("@G{cleared}\n")

	default:
		usage()
		os.Exit(1)
	}
}

func printNotifications(syncer *notify.Syncer) {
	items := syncer.Notifications()
	if len(items) == 0 {
		fmt.Printf("no notifications\n")
		return
	}
	for _, n := range items {
		marker := "@Y{*}"
		if n.Read {
			marker = " "
		}
		fmt.Printf("%s [%s] @C{%s} %s  (%s)\n", marker, n.Priority, n.Title, n.Message, n.ID)
	}
	fmt.Printf("\n%d unread of %d\n", syncer.UnreadCount(), len(items))
}

// watch keeps the polling loop alive and reports unread-count changes until
// interrupted.
func watch(cfg config.Config, sessions *session.Store, syncer *notify.Syncer) {
	if !sessions.IsAuthenticated() {
		bail(fmt.Errorf("not logged in"))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	syncer.Start(ctx)
	fmt.Printf("polling every %s; ctrl-c to stop\n", cfg.PollInterval)

	last := -1
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			fmt.Printf("\nstopped\n")
			return
		case <-ticker.C:
			if count := syncer.UnreadCount(); count != last {
				fmt.Printf("@Y{%d unread}\n", count)
				last = count
			}
		}
	}
}
