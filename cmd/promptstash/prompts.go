package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/kimhsiao/promptstash/internal/models"
	"github.com/kimhsiao/promptstash/internal/view"
)

var (
	addTags     []string
	listSearch  string
	listTag     string
	editTitle   string
	editContent string
	editTags    []string
)

// resolvePrompt finds a record by full id or unique id prefix.
func resolvePrompt(c *view.Controller, ref string) (models.Prompt, error) {
	if p, ok := c.Get(ref); ok {
		return p, nil
	}
	var matches []models.Prompt
	for _, p := range c.All() {
		if strings.HasPrefix(p.ID, ref) {
			matches = append(matches, p)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return models.Prompt{}, fmt.Errorf("no prompt matches %q", ref)
	default:
		return models.Prompt{}, fmt.Errorf("%q is ambiguous (%d matches)", ref, len(matches))
	}
}

// printPromptLine writes one list row: short id, title, tags.
func printPromptLine(cmd *cobra.Command, p models.Prompt) {
	short := p.ID
	if len(short) > 8 {
		short = short[:8]
	}
	line := fmt.Sprintf("%s  %s", short, p.Title)
	if len(p.Tags) > 0 {
		line += "  [" + strings.Join(p.Tags, ", ") + "]"
	}
	cmd.Println(line)
}

var addCmd = &cobra.Command{
	Use:   "add <title> <content>",
	Short: "Add a prompt snippet",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		c := view.NewController(cmd.Context(), a.store)
		created, err := c.Add(cmd.Context(), args[0], args[1], addTags)
		if err != nil {
			return err
		}
		cmd.Println(a.printer.Message("prompt.created"))
		printPromptLine(cmd, created)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List prompt snippets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		c := view.NewController(cmd.Context(), a.store)
		c.SetSearch(listSearch)
		c.SetTag(listTag)
		for _, p := range c.Visible() {
			printPromptLine(cmd, p)
		}
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a prompt's full content",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		c := view.NewController(cmd.Context(), a.store)
		p, err := resolvePrompt(c, args[0])
		if err != nil {
			return err
		}
		cmd.Printf("id:      %s\n", p.ID)
		cmd.Printf("title:   %s\n", p.Title)
		if len(p.Tags) > 0 {
			cmd.Printf("tags:    %s\n", strings.Join(p.Tags, ", "))
		}
		cmd.Printf("created: %s\n", p.CreatedAt)
		cmd.Printf("updated: %s\n", p.UpdatedAt)
		cmd.Println()
		cmd.Println(p.Content)
		return nil
	},
}

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit a prompt's title, content, or tags",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		c := view.NewController(cmd.Context(), a.store)
		p, err := resolvePrompt(c, args[0])
		if err != nil {
			return err
		}

		if !cmd.Flags().Changed("title") && !cmd.Flags().Changed("content") && !cmd.Flags().Changed("tag") {
			return fmt.Errorf("nothing to change: pass --title, --content, or --tag")
		}
		if cmd.Flags().Changed("title") {
			p.Title = editTitle
		}
		if cmd.Flags().Changed("content") {
			p.Content = editContent
		}
		if cmd.Flags().Changed("tag") {
			p.Tags = editTags
		}
		if !p.Valid() {
			return fmt.Errorf("%s", a.printer.Message("prompt.invalid"))
		}

		if err := c.Edit(cmd.Context(), p); err != nil {
			return err
		}
		cmd.Println(a.printer.Message("prompt.updated"))
		return nil
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a prompt snippet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		c := view.NewController(cmd.Context(), a.store)
		p, err := resolvePrompt(c, args[0])
		if err != nil {
			return err
		}
		if err := c.Remove(cmd.Context(), p.ID); err != nil {
			return err
		}
		cmd.Println(a.printer.Message("prompt.deleted"))
		return nil
	},
}

var moveCmd = &cobra.Command{
	Use:   "move <id> <position>",
	Short: "Move a prompt to a new position (0-based)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		to, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("position must be a number: %q", args[1])
		}

		c := view.NewController(cmd.Context(), a.store)
		p, err := resolvePrompt(c, args[0])
		if err != nil {
			return err
		}
		if err := c.Move(cmd.Context(), p.ID, to); err != nil {
			return err
		}
		cmd.Println(a.printer.Message("prompt.reordered"))
		return nil
	},
}

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List all tags in use",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		c := view.NewController(cmd.Context(), a.store)
		for _, tag := range c.Tags() {
			cmd.Println(tag)
		}
		return nil
	},
}

var copyCmd = &cobra.Command{
	Use:   "copy <id>",
	Short: "Copy a prompt's content to the clipboard",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		c := view.NewController(cmd.Context(), a.store)
		p, err := resolvePrompt(c, args[0])
		if err != nil {
			return err
		}
		if err := clipboard.WriteAll(p.Content); err != nil {
			return fmt.Errorf("clipboard write failed: %w", err)
		}
		cmd.Println(a.printer.Message("prompt.copied"))
		return nil
	},
}

func init() {
	addCmd.Flags().StringSliceVarP(&addTags, "tag", "t", nil, "tag to attach (repeatable)")
	listCmd.Flags().StringVarP(&listSearch, "search", "s", "", "filter by substring over title, content, and tags")
	listCmd.Flags().StringVarP(&listTag, "tag", "t", "", "filter by tag")
	editCmd.Flags().StringVar(&editTitle, "title", "", "new title")
	editCmd.Flags().StringVar(&editContent, "content", "", "new content")
	editCmd.Flags().StringSliceVarP(&editTags, "tag", "t", nil, "replacement tags (repeatable)")
}
