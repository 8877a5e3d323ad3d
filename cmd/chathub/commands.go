package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/kalambet/chathub/internal/archive"
	"github.com/kalambet/chathub/internal/chatgpt"
	"github.com/kalambet/chathub/internal/config"
)

// --- fetch ---

var fetchCmd = &cobra.Command{
	Use:   "fetch [conversation-id]",
	Short: "Fetch a ChatGPT conversation using browser session cookies",
	Long: `Fetch a ChatGPT conversation using browser session cookies.

Cookies are read from a JSON file of name/value pairs (see
'chathub config show' for the path). To get fresh values:
  1. Open Chrome DevTools on chatgpt.com (F12)
  2. Go to the Network tab and do any action
  3. Right-click a request, Copy as cURL, extract the cookie values

Examples:
  chathub fetch 69399ea2-f73c-832f-9de1-7a39cf246efc
  chathub fetch --list --limit 10
  chathub fetch 69399ea2-... --archive`,
	RunE: func(cmd *cobra.Command, args []string) error {
		listFlag, _ := cmd.Flags().GetBool("list")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")
		output, _ := cmd.Flags().GetString("output")
		toArchive, _ := cmd.Flags().GetBool("archive")
		cookieFile, _ := cmd.Flags().GetString("cookies")

		if !listFlag && len(args) == 0 {
			return fmt.Errorf("conversation ID is required (or use --list)")
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cookieFile == "" {
			cookieFile = cfg.ChatGPT.CookieFile
		}

		cookies, err := chatgpt.LoadCookies(cookieFile)
		if err != nil {
			printError("Could not load cookies from %s", cookieFile)
			return err
		}

		client, err := chatgpt.NewClient(cfg.ChatGPT.BaseURL, cookies)
		if err != nil {
			return err
		}

		ctx := cmd.Context()

		printStep("Authenticating...")
		if err := client.Authenticate(ctx); err != nil {
			if errors.Is(err, chatgpt.ErrCookiesExpired) {
				printError("Failed to get access token. Update %s with fresh browser cookies.", cookieFile)
			}
			return err
		}
		printSuccess("Authenticated")

		if listFlag {
			return runFetchList(ctx, client, limit, offset)
		}

		return runFetchOne(ctx, client, cfg, args[0], output, toArchive)
	},
}

func runFetchList(ctx context.Context, client *chatgpt.Client, limit, offset int) error {
	list, err := client.ListConversations(ctx, limit, offset)
	if err != nil {
		return err
	}

	if len(list.Items) == 0 {
		fmt.Println("No conversations found.")
		return nil
	}

	for _, item := range list.Items {
		title := item.Title
		if title == "" {
			title = "Untitled"
		}
		fmt.Printf("%s  %s\n", colorize(colorCyan, item.ID), title)
	}
	fmt.Printf("\nShowing %d of %d conversations\n", len(list.Items), list.Total)
	return nil
}

func runFetchOne(ctx context.Context, client *chatgpt.Client, cfg config.Config, id, output string, toArchive bool) error {
	printStep("Fetching conversation %s", id)
	conv, err := client.GetConversation(ctx, id)
	if err != nil {
		return err
	}

	title := conv.Title
	if title == "" {
		title = "Untitled"
	}
	fmt.Printf("\n%s\n\n", colorize(colorBold, title))

	messages := chatgpt.FlattenMessages(conv)
	for _, msg := range messages {
		header := "[" + strings.ToUpper(msg.Role) + "]"
		if msg.CreateTime > 0 {
			header += time.Unix(int64(msg.CreateTime), 0).Format(" [15:04:05]")
		}
		fmt.Println(colorize(colorCyan, header))
		fmt.Println(clipContent(msg.Content, 500))
		fmt.Println()
	}
	fmt.Printf("Total messages: %d\n", len(messages))

	if output == "" {
		output = fmt.Sprintf("conversation_%s.json", id)
	}
	if err := os.WriteFile(output, conv.Raw, 0o644); err != nil {
		return fmt.Errorf("writing raw conversation: %w", err)
	}
	printSuccess("Raw data saved to %s", output)

	if toArchive {
		store, err := archive.Open(cfg.Archive.Dir)
		if err != nil {
			return err
		}
		archived := make([]archive.Message, len(messages))
		for i, m := range messages {
			archived[i] = archive.Message{Role: m.Role, Content: m.Content}
		}
		saved, path, err := store.Save(archive.SavedConversation{
			Title:    conv.Title,
			Messages: archived,
		})
		if err != nil {
			return fmt.Errorf("archiving conversation: %w", err)
		}
		printSuccess("Archived as %s (%s)", saved.ID, path)
	}

	return nil
}

func clipContent(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

func init() {
	fetchCmd.Flags().Bool("list", false, "list recent conversations instead of fetching one")
	fetchCmd.Flags().Int("limit", 20, "maximum number of conversations to list")
	fetchCmd.Flags().Int("offset", 0, "listing offset")
	fetchCmd.Flags().String("output", "", "output file for the raw conversation JSON")
	fetchCmd.Flags().Bool("archive", false, "also save the flattened transcript to the local archive")
	fetchCmd.Flags().String("cookies", "", "cookie file path (overrides config)")
}

// --- list ---

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived conversations",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/api/conversations")
		if err != nil {
			return err
		}

		var conversations []archive.SavedConversation
		if err := decodeJSON(resp, &conversations); err != nil {
			return err
		}

		if len(conversations) == 0 {
			fmt.Println("No conversations in the archive.")
			return nil
		}

		for _, sc := range conversations {
			title := sc.Title
			if title == "" {
				title = "Untitled"
			}
			fmt.Printf("%s  %s  %s (%d messages)\n",
				colorize(colorCyan, shortID(sc.ID)),
				sc.SavedAt.Format("2006-01-02"),
				title,
				sc.MessageCount,
			)
		}
		return nil
	},
}

// --- show ---

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show an archived conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/api/conversations")
		if err != nil {
			return err
		}

		var conversations []archive.SavedConversation
		if err := decodeJSON(resp, &conversations); err != nil {
			return err
		}

		for _, sc := range conversations {
			if sc.ID == args[0] || strings.HasPrefix(sc.ID, args[0]) {
				printConversation(sc)
				return nil
			}
		}
		return fmt.Errorf("conversation %q not found in the archive", args[0])
	},
}

func printConversation(sc archive.SavedConversation) {
	title := sc.Title
	if title == "" {
		title = "Untitled"
	}
	fmt.Printf("%s\n", colorize(colorBold, title))
	if sc.Summary != "" {
		fmt.Printf("%s\n", sc.Summary)
	}
	if len(sc.Tags) > 0 {
		fmt.Printf("Tags: %s\n", strings.Join(sc.Tags, ", "))
	}
	fmt.Printf("Saved: %s (%d messages)\n", sc.SavedAt.Format(time.RFC3339), sc.MessageCount)

	if len(sc.KeyPoints) > 0 {
		fmt.Println("\nKey points:")
		for _, p := range sc.KeyPoints {
			fmt.Printf("  - %s\n", p)
		}
	}

	fmt.Println()
	for _, m := range sc.Messages {
		fmt.Println(colorize(colorCyan, "["+strings.ToUpper(m.Role)+"]"))
		fmt.Println(m.Content)
		fmt.Println()
	}
}

// --- delete ---

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an archived conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		store, err := archive.Open(cfg.Archive.Dir)
		if err != nil {
			return err
		}

		if err := store.Delete(args[0]); err != nil {
			if errors.Is(err, archive.ErrNotFound) {
				printError("Conversation %q not found", args[0])
			}
			return err
		}

		printSuccess("Deleted %s", args[0])
		return nil
	},
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
