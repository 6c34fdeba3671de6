package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/itchan-dev/forllm/frontend/internal/apiclient"
	"github.com/itchan-dev/forllm/frontend/internal/markdown"
	"github.com/itchan-dev/forllm/frontend/internal/personas"
	"github.com/itchan-dev/forllm/frontend/internal/thread"
	"github.com/itchan-dev/forllm/shared/domain"
	"github.com/spf13/cobra"
)

var (
	threadFile    string
	threadOutline bool
	topicsCreate  string
)

var threadCmd = &cobra.Command{
	Use:   "thread [topic-id]",
	Short: "Render a topic's posts as a thread",
	Long: `Fetches the posts of a topic from the forum API (or reads them from a JSON
file with --file) and prints the rendered thread HTML.

Example:
  forllm-frontend thread 12
  forllm-frontend thread --file posts.json --outline`,
	Args: cobra.MaximumNArgs(1),
	RunE: runThread,
}

var personasCmd = &cobra.Command{
	Use:   "personas [query]",
	Short: "List active personas matching a query",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPersonas,
}

var topicsCmd = &cobra.Command{
	Use:   "topics [subforum-id]",
	Short: "List subforums, or the topics of one subforum",
	Long: `Without arguments lists every subforum; with a subforum id lists its topics.
--create adds a new subforum instead.

Example:
  forllm-frontend topics
  forllm-frontend topics 3
  forllm-frontend topics --create "Go"`,
	Args: cobra.MaximumNArgs(1),
	RunE:  runTopics,
}

func init() {
	threadCmd.Flags().StringVar(&threadFile, "file", "", "read posts from a JSON file instead of the API")
	threadCmd.Flags().BoolVar(&threadOutline, "outline", false, "print an indented text outline instead of HTML")
	topicsCmd.Flags().StringVar(&topicsCreate, "create", "", "create a subforum with this name")
}

func runThread(cmd *cobra.Command, args []string) error {
	posts, err := loadPosts(cmd, args)
	if err != nil {
		return err
	}
	roots, err := thread.Build(posts)
	if err != nil {
		return fmt.Errorf("failed to build thread: %w", err)
	}

	out := cmd.OutOrStdout()
	if threadOutline {
		writeOutline(out, roots)
		return nil
	}
	html, err := thread.NewRenderer(markdown.New()).Render(roots)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, html)
	return err
}

func loadPosts(cmd *cobra.Command, args []string) ([]domain.Post, error) {
	if threadFile != "" {
		f, err := os.Open(threadFile)
		if err != nil {
			return nil, fmt.Errorf("can't open posts file: %w", err)
		}
		defer f.Close()
		return thread.Decode(f)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("either a topic id or --file is required")
	}
	topicId, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid topic id %q", args[0])
	}
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	client := apiclient.New(cfg.Public.APIBaseURL, cfg.Public.RequestTimeout)
	return client.GetTopicPosts(cmd.Context(), topicId)
}

func writeOutline(w io.Writer, roots []*thread.Node) {
	for _, e := range thread.Walk(roots) {
		p := e.Node.Post
		author := p.AuthorDisplayName
		if p.IsLLMResponse {
			author += " [LLM]"
		}
		fmt.Fprintf(w, "%s#%d %s %s\n", strings.Repeat("  ", e.Depth), p.Id, author, p.CreatedAt.Format("2006-01-02 15:04"))
	}
}

func runPersonas(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	query := ""
	if len(args) > 0 {
		query = args[0]
	}
	cache := personas.NewCache(apiclient.New(cfg.Public.APIBaseURL, cfg.Public.RequestTimeout), cfg.Public.PersonaCacheTTL)
	found, err := cache.Search(cmd.Context(), query)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, p := range found {
		fmt.Fprintf(out, "%d\t%s\t%s\n", p.Id, p.Name, p.MentionTag())
	}
	return nil
}

func runTopics(cmd *cobra.Command, args []string) error {
	creating := cmd.Flags().Changed("create") || topicsCreate != ""
	name := strings.TrimSpace(topicsCreate)
	if creating && name == "" {
		return fmt.Errorf("subforum name is empty")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client := apiclient.New(cfg.Public.APIBaseURL, cfg.Public.RequestTimeout)
	out := cmd.OutOrStdout()

	if creating {
		subforum, err := client.CreateSubforum(cmd.Context(), name)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%d\t%s\n", subforum.Id, subforum.Name)
		return nil
	}

	if len(args) == 0 {
		subforums, err := client.ListSubforums(cmd.Context())
		if err != nil {
			return err
		}
		for _, s := range subforums {
			fmt.Fprintf(out, "%d\t%s\n", s.Id, s.Name)
		}
		return nil
	}

	subforumId, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid subforum id %q", args[0])
	}
	topics, err := client.ListTopics(cmd.Context(), subforumId)
	if err != nil {
		return err
	}
	for _, t := range topics {
		fmt.Fprintf(out, "%d\t%s\t%s\t%d posts\n", t.Id, t.Title, t.Username, t.PostCount)
	}
	return nil
}
