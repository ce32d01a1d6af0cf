package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/Nexora-Open-Source/smartedu/api"
	"github.com/Nexora-Open-Source/smartedu/generation"
	"github.com/Nexora-Open-Source/smartedu/schema"
	"github.com/Nexora-Open-Source/smartedu/session"
	"github.com/Nexora-Open-Source/smartedu/view"
	"github.com/spf13/cobra"
)

func client() (*api.Client, error) {
	return appConfig.Services.Container.GetClient()
}

func addSessionCommands(root *cobra.Command) {
	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			if email == "" || password == "" {
				return fmt.Errorf("--email and --password are required")
			}
			c, err := client()
			if err != nil {
				return err
			}
			user, err := c.Login(cmd.Context(), email, password)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s <%s>\n", user.Name, user.Email)
			return nil
		},
	}
	loginCmd.Flags().String("email", "", "Account email")
	loginCmd.Flags().String("password", "", "Account password")

	registerCmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			var creds schema.Credentials
			creds.Name, _ = cmd.Flags().GetString("name")
			creds.Email, _ = cmd.Flags().GetString("email")
			creds.Password, _ = cmd.Flags().GetString("password")
			if creds.Email == "" || creds.Password == "" {
				return fmt.Errorf("--email and --password are required")
			}
			c, err := client()
			if err != nil {
				return err
			}
			if err := c.Register(cmd.Context(), creds); err != nil {
				return fmt.Errorf("registration failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Account created, you can now log in")
			return nil
		},
	}
	registerCmd.Flags().String("name", "", "Display name")
	registerCmd.Flags().String("email", "", "Account email")
	registerCmd.Flags().String("password", "", "Account password")

	logoutCmd := &cobra.Command{
		Use:   "logout",
		Short: "End the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client()
			if err != nil {
				return err
			}
			if err := c.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}

	whoamiCmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client()
			if err != nil {
				return err
			}
			return printSession(cmd.OutOrStdout(), c.Session())
		},
	}

	root.AddCommand(loginCmd, registerCmd, logoutCmd, whoamiCmd)
}

func printSession(out io.Writer, sess session.Accessor) error {
	token, ok := sess.Token()
	if !ok {
		return session.ErrNoSession
	}
	if user, ok := sess.User(); ok {
		fmt.Fprintf(out, "%s <%s> role=%s\n", user.Name, user.Email, user.Role)
	}
	if exp, ok := session.ExpiresAt(token); ok {
		fmt.Fprintf(out, "Session expires %s\n", exp.Local().Format(time.RFC1123))
	}
	return nil
}

func addResourceCommands(root *cobra.Command) {
	materiCmd := &cobra.Command{Use: "materi", Short: "Manage materi pokok"}

	materiListCmd := &cobra.Command{
		Use:   "list",
		Short: "List materi pokok",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client()
			if err != nil {
				return err
			}
			items, err := c.ListMateriPokok(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tJOB ROLE\tLEVEL\tCOMPETENCIES")
			for _, m := range items {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", m.ID, m.JobRole, m.Level, strings.Join(m.Competencies, ", "))
			}
			return w.Flush()
		},
	}

	materiCreateCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a materi pokok",
		RunE: func(cmd *cobra.Command, args []string) error {
			var m schema.MateriPokok
			applyMateriFlags(cmd, &m)
			c, err := client()
			if err != nil {
				return err
			}
			created, err := c.CreateMateriPokok(cmd.Context(), m)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created materi pokok %s (%s)\n", created.ID, created.JobRole)
			return nil
		},
	}
	materiFlags(materiCreateCmd)

	materiUpdateCmd := &cobra.Command{
		Use:   "update id",
		Short: "Change fields of a materi pokok",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client()
			if err != nil {
				return err
			}
			m, err := c.GetMateriPokok(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			applyMateriFlags(cmd, m)
			if err := c.UpdateMateriPokok(cmd.Context(), args[0], *m); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated materi pokok %s (%s)\n", args[0], m.JobRole)
			return nil
		},
	}
	materiFlags(materiUpdateCmd)

	materiDeleteCmd := &cobra.Command{
		Use:   "delete id",
		Short: "Delete a materi pokok",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client()
			if err != nil {
				return err
			}
			if err := c.DeleteMateriPokok(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted materi pokok %s\n", args[0])
			return nil
		},
	}
	materiCmd.AddCommand(materiListCmd, materiCreateCmd, materiUpdateCmd, materiDeleteCmd)

	modelCmd := &cobra.Command{Use: "model", Short: "Manage prompt models"}

	modelListCmd := &cobra.Command{
		Use:   "list",
		Short: "List prompt models",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client()
			if err != nil {
				return err
			}
			models, err := c.ListModels(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION")
			for _, m := range models {
				fmt.Fprintf(w, "%s\t%s\t%s\n", m.ID, m.Name, m.Description)
			}
			return w.Flush()
		},
	}

	modelCreateCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a prompt model",
		RunE: func(cmd *cobra.Command, args []string) error {
			var m schema.PromptModel
			applyModelFlags(cmd, &m)
			c, err := client()
			if err != nil {
				return err
			}
			created, err := c.CreateModel(cmd.Context(), m)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created model %s (%s)\n", created.ID, created.Name)
			return nil
		},
	}
	modelFlags(modelCreateCmd)

	modelUpdateCmd := &cobra.Command{
		Use:   "update id",
		Short: "Change fields of a prompt model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client()
			if err != nil {
				return err
			}
			models, err := c.ListModels(cmd.Context())
			if err != nil {
				return err
			}
			m, err := findModel(models, args[0])
			if err != nil {
				return err
			}
			applyModelFlags(cmd, m)
			if err := c.UpdateModel(cmd.Context(), args[0], *m); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated model %s (%s)\n", args[0], m.Name)
			return nil
		},
	}
	modelFlags(modelUpdateCmd)

	modelDeleteCmd := &cobra.Command{
		Use:   "delete id",
		Short: "Delete a prompt model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client()
			if err != nil {
				return err
			}
			if err := c.DeleteModel(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted model %s\n", args[0])
			return nil
		},
	}
	modelCmd.AddCommand(modelListCmd, modelCreateCmd, modelUpdateCmd, modelDeleteCmd)

	outlineCmd := &cobra.Command{Use: "outline", Short: "Work with generated outlines"}
	outlineShowCmd := &cobra.Command{
		Use:   "show",
		Short: "Print a module outline",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetString("id")
			c, err := client()
			if err != nil {
				return err
			}
			module, err := c.GetModule(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), view.NewOutlineContent(module).String())
			return nil
		},
	}
	outlineShowCmd.Flags().String("id", "", "Module id")
	outlineCmd.AddCommand(outlineShowCmd)

	ebookCmd := &cobra.Command{Use: "ebook", Short: "Work with generated ebooks"}
	ebookShowCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the ebook of a module",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetString("id")
			c, err := client()
			if err != nil {
				return err
			}
			ebook, err := c.GetEbook(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), view.NewEbookContent(ebook).String())
			return nil
		},
	}
	ebookShowCmd.Flags().String("id", "", "Module id")

	ebookSaveCmd := &cobra.Command{
		Use:   "save",
		Short: "Replace the ebook content of a module with an HTML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetString("id")
			file, _ := cmd.Flags().GetString("file")
			title, _ := cmd.Flags().GetString("title")
			html, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read ebook content: %w", err)
			}
			c, err := client()
			if err != nil {
				return err
			}
			ebook, err := saveEbook(cmd.Context(), c, id, string(html), title)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved ebook of module %s (%s)\n", id, ebook.Title)
			return nil
		},
	}
	ebookSaveCmd.Flags().String("id", "", "Module id")
	ebookSaveCmd.Flags().String("file", "", "HTML file with the edited content")
	ebookSaveCmd.Flags().String("title", "", "New title (default: keep the current one)")
	ebookCmd.AddCommand(ebookShowCmd, ebookSaveCmd)

	root.AddCommand(materiCmd, modelCmd, outlineCmd, ebookCmd)
}

func materiFlags(cmd *cobra.Command) {
	cmd.Flags().String("job-role", "", "Job role the materi is about")
	cmd.Flags().String("description", "", "Description")
	cmd.Flags().StringSlice("competency", nil, "Competency (repeatable)")
	cmd.Flags().String("level", "", "Level")
}

// applyMateriFlags copies the flags given on the command line onto m
func applyMateriFlags(cmd *cobra.Command, m *schema.MateriPokok) {
	flags := cmd.Flags()
	if flags.Changed("job-role") {
		m.JobRole, _ = flags.GetString("job-role")
	}
	if flags.Changed("description") {
		m.Description, _ = flags.GetString("description")
	}
	if flags.Changed("competency") {
		m.Competencies, _ = flags.GetStringSlice("competency")
	}
	if flags.Changed("level") {
		m.Level, _ = flags.GetString("level")
	}
}

func modelFlags(cmd *cobra.Command) {
	cmd.Flags().String("name", "", "Model name")
	cmd.Flags().String("template", "", "Prompt template")
	cmd.Flags().String("description", "", "Description")
}

// applyModelFlags copies the flags given on the command line onto m
func applyModelFlags(cmd *cobra.Command, m *schema.PromptModel) {
	flags := cmd.Flags()
	if flags.Changed("name") {
		m.Name, _ = flags.GetString("name")
	}
	if flags.Changed("template") {
		m.PromptTemplate, _ = flags.GetString("template")
	}
	if flags.Changed("description") {
		m.Description, _ = flags.GetString("description")
	}
}

// findModel picks a model out of a listing; the backend has no single-model read
func findModel(models []schema.PromptModel, id string) (*schema.PromptModel, error) {
	for i := range models {
		if models[i].ID == id {
			return &models[i], nil
		}
	}
	return nil, fmt.Errorf("model %s not found", id)
}

// ebookStore reads and saves ebooks by module id
type ebookStore interface {
	GetEbook(ctx context.Context, moduleID string) (*schema.Ebook, error)
	UpdateEbook(ctx context.Context, e schema.Ebook) error
}

// saveEbook replaces the content of a module's ebook. An empty title keeps
// the current one.
func saveEbook(ctx context.Context, store ebookStore, moduleID, html, title string) (*schema.Ebook, error) {
	if strings.TrimSpace(html) == "" {
		return nil, fmt.Errorf("ebook content is empty")
	}
	ebook, err := store.GetEbook(ctx, moduleID)
	if err != nil {
		return nil, err
	}
	ebook.ContentHTML = html
	if title != "" {
		ebook.Title = title
	}
	if ebook.ModuleID == "" {
		ebook.ModuleID = moduleID
	}
	if err := store.UpdateEbook(ctx, *ebook); err != nil {
		return nil, err
	}
	return ebook, nil
}

func addGenerationCommands(root *cobra.Command) {
	generateCmd := &cobra.Command{
		Use:       "generate outline|ebook",
		Short:     "Trigger outline or ebook generation",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(generation.KindOutline), string(generation.KindEbook)},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := generation.ParseKind(args[0])
			if err != nil {
				return err
			}
			ids, _ := cmd.Flags().GetStringSlice("id")
			model, _ := cmd.Flags().GetString("model")
			wait, _ := cmd.Flags().GetBool("wait")

			trigger, err := appConfig.Services.Container.GetTrigger()
			if err != nil {
				return err
			}
			ack, err := trigger.Trigger(cmd.Context(), kind, ids, model)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Generation requested for %s %s with model %s\n", kind, strings.Join(ack.IDs, ", "), ack.Model)
			if !wait {
				return nil
			}

			registry, err := appConfig.Services.Container.GetRegistry()
			if err != nil {
				return err
			}
			return watchJobs(cmd.Context(), registry, ack.Jobs(), true, out)
		},
	}
	generateCmd.Flags().StringSlice("id", nil, "Entity id to generate for (repeatable)")
	generateCmd.Flags().String("model", "", "Prompt model name")
	generateCmd.Flags().Bool("wait", false, "Watch until the content is generated")

	statusCmd := &cobra.Command{
		Use:   "status outline|ebook",
		Short: "Check whether content has been generated",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := generation.ParseKind(args[0])
			if err != nil {
				return err
			}
			ids, _ := cmd.Flags().GetStringSlice("id")
			if len(ids) == 0 {
				return generation.ErrMissingID
			}
			registry, err := appConfig.Services.Container.GetRegistry()
			if err != nil {
				return err
			}
			jobs := make([]generation.Job, len(ids))
			for i, id := range ids {
				jobs[i] = generation.Job{Kind: kind, ID: id}
			}
			return watchJobs(cmd.Context(), registry, jobs, false, cmd.OutOrStdout())
		},
	}
	statusCmd.Flags().StringSlice("id", nil, "Entity id (repeatable)")

	root.AddCommand(generateCmd, statusCmd)
}

// jobWatcher is the part of the registry the CLI drives
type jobWatcher interface {
	Watch(job generation.Job, generating bool, onChange func(generation.Status)) (*generation.Watcher, error)
}

// watchJobs watches every job and prints each status change until all of
// them finish or ctx is cancelled.
func watchJobs(ctx context.Context, registry jobWatcher, jobs []generation.Job, generating bool, out io.Writer) error {
	var mu sync.Mutex
	printer := func(job generation.Job) func(generation.Status) {
		transform := view.TransformFor(job.Kind)
		return func(st generation.Status) {
			text := view.RenderFor(st, transform, generating).Text()
			mu.Lock()
			defer mu.Unlock()
			fmt.Fprintf(out, "[%s] %s\n", job.Key(), text)
		}
	}

	watchers := make([]*generation.Watcher, 0, len(jobs))
	for _, job := range jobs {
		w, err := registry.Watch(job, generating, printer(job))
		if err != nil {
			return fmt.Errorf("failed to watch %s: %w", job.Key(), err)
		}
		watchers = append(watchers, w)
	}

	failed := 0
	for _, w := range watchers {
		st, err := w.Wait(ctx)
		if err != nil {
			return err
		}
		if st.State == generation.Failed || st.State == generation.TimedOut {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d jobs did not produce content", failed, len(watchers))
	}
	return nil
}
