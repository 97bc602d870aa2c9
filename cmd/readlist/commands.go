package main

import (
	"fmt"
	"strconv"

	"github.com/phrazzld/readlist-api/internal/service"
	"github.com/spf13/cobra"
)

func (c *cli) listCommand() *cobra.Command {
	var req service.ListItemsRequest
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List reading items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			items, err := c.service.ListItems(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printItems(cmd.OutOrStdout(), items)
		},
	}
	cmd.Flags().StringVar(&req.Status, "status", "", "filter by status (to-read, reading, finished)")
	cmd.Flags().StringVar(&req.Tag, "tag", "", "filter by tag")
	cmd.Flags().StringVar(&req.Search, "search", "", "free-text search over title, author, notes and tags")
	return cmd
}

func (c *cli) showCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one reading item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := c.service.GetItem(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printItem(cmd.OutOrStdout(), item)
		},
	}
}

func (c *cli) addCommand() *cobra.Command {
	var req service.CreateReadingItemRequest
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a new item to read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Title = args[0]
			item, err := c.service.CreateReadingItem(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %q by %s (%s)\n", item.Title, item.Author, item.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Author, "author", "", "author name")
	cmd.Flags().StringVar(&req.Priority, "priority", "", "priority (low, medium, high)")
	cmd.Flags().StringSliceVar(&req.Tags, "tags", nil, "comma-separated tags")
	cmd.Flags().StringVar(&req.Notes, "notes", "", "free-form notes")
	_ = cmd.MarkFlagRequired("author")
	return cmd
}

func (c *cli) startCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "start <id>",
		Short: "Start reading an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := c.service.StartReading(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Started reading %q\n", item.Title)
			return nil
		},
	}
}

func (c *cli) progressCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "progress <id> <percent>",
		Short: "Record reading progress; 100 finishes the item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pct, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("progress must be a whole number, got %q", args[1])
			}
			item, err := c.service.UpdateProgress(cmd.Context(), args[0], service.UpdateProgressRequest{Progress: pct})
			if err != nil {
				return err
			}
			if item.Status == "finished" {
				fmt.Fprintf(cmd.OutOrStdout(), "Finished %q\n", item.Title)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%q is %d%% read\n", item.Title, pct)
			return nil
		},
	}
}

func (c *cli) finishCommand() *cobra.Command {
	var (
		rating int
		notes  string
	)
	cmd := &cobra.Command{
		Use:   "finish <id>",
		Short: "Finish an item being read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := service.FinishReadingRequest{Notes: notes}
			if cmd.Flags().Changed("rating") {
				req.Rating = &rating
			}
			item, err := c.service.FinishReading(cmd.Context(), args[0], req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Finished %q\n", item.Title)
			return nil
		},
	}
	cmd.Flags().IntVar(&rating, "rating", 0, "rating from 1 to 5")
	cmd.Flags().StringVar(&notes, "notes", "", "notes or review")
	return cmd
}

func (c *cli) priorityCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "priority <id> <low|medium|high>",
		Short: "Change an item's priority",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := c.service.UpdatePriority(cmd.Context(), args[0], service.UpdatePriorityRequest{Priority: args[1]})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%q is now %s priority\n", item.Title, item.Priority)
			return nil
		},
	}
}

func (c *cli) tagCommand() *cobra.Command {
	var remove bool
	cmd := &cobra.Command{
		Use:   "tag <id> <tag>",
		Short: "Add a tag to an item, or remove it with --remove",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				item *service.ReadingItemDTO
				err  error
			)
			if remove {
				item, err = c.service.RemoveTag(cmd.Context(), args[0], args[1])
			} else {
				item, err = c.service.AddTag(cmd.Context(), args[0], service.AddTagRequest{Tag: args[1]})
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%q tags: %s\n", item.Title, joinOrDash(item.Tags))
			return nil
		},
	}
	cmd.Flags().BoolVar(&remove, "remove", false, "remove the tag instead of adding it")
	return cmd
}

func (c *cli) removeCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete an item",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.service.DeleteItem(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}

func (c *cli) statsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show reading statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := c.service.GetStatistics(cmd.Context())
			if err != nil {
				return err
			}
			return printStatistics(cmd.OutOrStdout(), stats)
		},
	}
}

func (c *cli) suggestCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Suggest what to read next",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 0 {
				return fmt.Errorf("--max must not be negative")
			}
			items, err := c.service.SuggestNextReads(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to suggest")
				return nil
			}
			return printItems(cmd.OutOrStdout(), items)
		},
	}
	cmd.Flags().IntVar(&limit, "max", 0, "maximum number of suggestions (default 3)")
	return cmd
}

func (c *cli) balanceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Check whether the list is balanced",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			balance, err := c.service.GetListBalance(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if balance.IsBalanced {
				fmt.Fprintln(out, "Your reading list is balanced")
				return nil
			}
			for _, w := range balance.Warnings {
				fmt.Fprintf(out, "- %s\n", w)
			}
			return nil
		},
	}
}

func (c *cli) goalsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "goals",
		Short: "Show this year's reading goal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			goals, err := c.service.GetReadingGoals(cmd.Context())
			if err != nil {
				return err
			}
			return printGoals(cmd.OutOrStdout(), goals)
		},
	}
}
