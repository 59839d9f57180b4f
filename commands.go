/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gookit/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func openStore(cfg *Config) (*FileCredentialStore, error) {
	return newFileCredentialStore(afero.NewOsFs(), cfg.credentials)
}

func newLoginCmd(cfg *Config) *cobra.Command {
	var req LoginRequest

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the session token.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cfg)
			if err != nil {
				return err
			}

			if _, err := newAPIClient(cfg, store).Login(cmd.Context(), req); err != nil {
				return err
			}

			return writeIdentity(cmd.OutOrStdout(), store, "Logged in as")
		},
	}

	cmd.Flags().StringVar(&req.Email, "email", "", "account email (env: EXOCHAT_EMAIL)")
	cmd.Flags().StringVar(&req.Password, "password", "", "account password (env: EXOCHAT_PASSWORD)")

	return cmd
}

func newRegisterCmd(cfg *Config) *cobra.Command {
	var req RegisterRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and remember the session token.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cfg)
			if err != nil {
				return err
			}

			if _, err := newAPIClient(cfg, store).Register(cmd.Context(), req); err != nil {
				return err
			}

			return writeIdentity(cmd.OutOrStdout(), store, "Registered as")
		},
	}

	cmd.Flags().StringVar(&req.Username, "username", "", "display name (env: EXOCHAT_USERNAME)")
	cmd.Flags().StringVar(&req.Email, "email", "", "account email (env: EXOCHAT_EMAIL)")
	cmd.Flags().StringVar(&req.Password, "password", "", "account password (env: EXOCHAT_PASSWORD)")

	return cmd
}

func writeIdentity(w io.Writer, store CredentialStore, prefix string) error {
	id, ok := newSessionResolver(store).ResolveIdentity()
	if !ok {
		_, err := fmt.Fprintln(w, "not logged in")
		return err
	}

	_, err := fmt.Fprintf(w, "%s %s (id %s)\n", prefix, id.DisplayName, id.SubjectID)
	return err
}

func newLogoutCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session token.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cfg)
			if err != nil {
				return err
			}

			if err := store.Clear(); err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), "You have been logged out.")
			return err
		},
	}
}

func newWhoamiCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the identity in the stored session token.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cfg)
			if err != nil {
				return err
			}

			return writeIdentity(cmd.OutOrStdout(), store, "Logged in as")
		},
	}
}

func newPlanetsCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "planets",
		Short: "List exoplanets.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			planets, err := newAPIClient(cfg, &MemoryCredentialStore{}).Exoplanets(cmd.Context())
			if err != nil {
				return err
			}

			writePlanets(cmd.OutOrStdout(), planets)

			return nil
		},
	}
}

func newPlanetCmd(cfg *Config) *cobra.Command {
	var submit bool

	cmd := &cobra.Command{
		Use:   "planet <id>",
		Short: "Show an exoplanet and take its citizenship quiz.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid exoplanet id: %q", args[0])
			}

			store, err := openStore(cfg)
			if err != nil {
				return err
			}

			return runPlanet(cmd, newAPIClient(cfg, store), id, submit)
		},
	}

	cmd.Flags().BoolVar(&submit, "submit", false, "report the quiz to the server to become a citizen (env: EXOCHAT_SUBMIT)")

	return cmd
}

func runPlanet(cmd *cobra.Command, api *APIClient, id int, submit bool) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	planet, err := api.Exoplanet(ctx, id)
	if err != nil {
		return err
	}

	writePlanet(out, planet)

	if len(planet.Quiz) == 0 {
		fmt.Fprintln(out, "No quiz available for this exoplanet.")
		return nil
	}

	answers, err := askQuiz(cmd.InOrStdin(), out, planet.Quiz)
	if err != nil {
		return fmt.Errorf("quiz: %w", err)
	}

	if gradableLocally(planet.Quiz) {
		score, passed := gradeQuiz(planet.Quiz, answers)
		if !passed {
			fmt.Fprintf(out, "You scored %d of %d. You did not pass the quiz. Try again!\n", score, len(planet.Quiz))
			return ErrQuizFailed
		}
		fmt.Fprintf(out, "You scored %d of %d. Congratulations! You passed the quiz.\n", score, len(planet.Quiz))
		if !submit {
			fmt.Fprintf(out, "Enter the chatroom with: exochat chat --room %d\n", planet.ID)
			return nil
		}
	}

	result, err := api.CompleteQuiz(ctx, planet.ID, answerMap(planet.Quiz, answers))
	if errors.Is(err, ErrQuizFailed) {
		fmt.Fprintln(out, result.Message)
		for _, miss := range result.IncorrectQuestions {
			fmt.Fprintf(out, "  question %d: you answered %q\n", miss.QuestionID, miss.YourAnswer)
		}
		return err
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest {
		// Already a citizen, or answers rejected; both leave the room open.
		fmt.Fprintln(out, apiErr.Message)
	} else if err != nil {
		return err
	} else {
		fmt.Fprintln(out, result.Message)
	}

	fmt.Fprintf(out, "Enter the chatroom with: exochat chat --room %d\n", planet.ID)

	return nil
}

func newBlogsCmd(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blogs",
		Short: "Read the blog.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			blogs, err := newAPIClient(cfg, &MemoryCredentialStore{}).Blogs(cmd.Context())
			if err != nil {
				return err
			}

			writeBlogs(cmd.OutOrStdout(), blogs)

			return nil
		},
	}

	var req BlogRequest

	post := &cobra.Command{
		Use:   "post",
		Short: "Write a blog post.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cfg)
			if err != nil {
				return err
			}

			if _, ok := store.Get(); !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Please login to write a blog.")
				return ErrUnauthenticated
			}

			msg, err := newAPIClient(cfg, store).CreateBlog(cmd.Context(), req)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), msg)
			return err
		},
	}

	post.Flags().StringVar(&req.Title, "title", "", "post title (env: EXOCHAT_TITLE)")
	post.Flags().StringVar(&req.Content, "content", "", "post content (env: EXOCHAT_CONTENT)")

	cmd.AddCommand(post)

	return cmd
}

func newChatCmd(cfg *Config) *cobra.Command {
	var (
		room string
		qr   bool
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Join an exoplanet's chatroom.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cfg)
			if err != nil {
				return err
			}

			return runChat(cmd, cfg, store, newWSTransport(cfg, nil), room, qr)
		},
	}

	cmd.Flags().StringVarP(&room, "room", "r", "", "room to join (env: EXOCHAT_ROOM)")
	cmd.Flags().BoolVar(&qr, "qr", false, "print a qr code linking to the room in a browser (env: EXOCHAT_QR)")

	return cmd
}

func runChat(cmd *cobra.Command, cfg *Config, store CredentialStore, transport Transport, room string, qr bool) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	styled := color.SupportColor()

	chat := newChatroom(cfg, room, newSessionResolver(store), store, transport,
		newTermRenderer(out, styled), newTermNavigator(out, styled))

	if err := chat.Join(ctx); err != nil {
		return err
	}
	defer transport.Close()

	if qr {
		if err := writeShareCode(out, cfg.chatroomPage(chat.Room())); err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "Joined room %s as %s. Type /quit to leave, /logout to log out.\n", chat.Room(), chat.Identity())

	return chat.Run(ctx, scanLines(cmd.InOrStdin()))
}

// scanLines streams input lines until EOF.
func scanLines(in io.Reader) <-chan string {
	lines := make(chan string)

	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	return lines
}
