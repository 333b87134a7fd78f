package cmd

import (
	"github.com/spf13/cobra"

	"github.com/gmailagent/gmailagent/internal/gmail"
	"github.com/gmailagent/gmailagent/internal/outfmt"
)

type attachmentListResponse struct {
	outfmt.Envelope
	MessageID   string                 `json:"message_id"`
	Attachments []gmail.AttachmentInfo `json:"attachments"`
	Count       int                    `json:"count"`
}

type downloadResponse struct {
	outfmt.Envelope
	MessageID  string                 `json:"message_id"`
	Downloaded []gmail.DownloadResult `json:"downloaded"`
	Count      int                    `json:"count"`
	OutputDir  string                 `json:"output_dir"`
}

type searchDownloadResponse struct {
	outfmt.Envelope
	Query                 string                   `json:"query"`
	EmailsSearched        int                      `json:"emails_searched"`
	EmailsWithAttachments int                      `json:"emails_with_attachments"`
	TotalDownloaded       int                      `json:"total_downloaded"`
	OutputDir             string                   `json:"output_dir"`
	DownloadedFiles       []gmail.DownloadResult   `json:"downloaded_files"`
	Emails                []gmail.EmailAttachments `json:"emails"`
}

func newAttachmentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "attachments <message-id>",
		Short: "List attachments in a message",
		Long: `List the attachments of a message with filename, MIME type and size.

Example:
  gmailagent attachments 18c2f4a9b1e03d57`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			sess, err := a.session(cmd.Context())
			if err != nil {
				return err
			}

			attachments, err := sess.ListAttachments(cmd.Context(), args[0])
			if err != nil {
				return a.operr(sess.Account(), err)
			}
			if attachments == nil {
				attachments = []gmail.AttachmentInfo{}
			}

			return a.print(attachmentListResponse{
				Envelope:    outfmt.OK(sess.Account()),
				MessageID:   args[0],
				Attachments: attachments,
				Count:       len(attachments),
			})
		},
	}
}

func newDownloadCmd() *cobra.Command {
	var (
		outputDir string
		filter    string
		prefix    string
	)

	cmd := &cobra.Command{
		Use:   "download <message-id>",
		Short: "Download attachments from a message",
		Long: `Download the attachments of one message to a directory. Filenames are
sanitized and deduplicated; individual failures are reported without
aborting the rest.

Examples:
  gmailagent download 18c2f4a9b1e03d57
  gmailagent download 18c2f4a9b1e03d57 -o ~/Downloads -f .pdf -p invoice`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			sess, err := a.session(cmd.Context())
			if err != nil {
				return err
			}

			dir := outputDir
			if dir == "" {
				dir = "."
			}

			downloaded, err := sess.DownloadAttachments(cmd.Context(), args[0], gmail.DownloadOptions{
				Dir:    dir,
				Filter: filter,
				Prefix: prefix,
			})
			if err != nil {
				return a.operr(sess.Account(), err)
			}
			if downloaded == nil {
				downloaded = []gmail.DownloadResult{}
			}

			count := 0
			for _, d := range downloaded {
				if d.SavedAs != "" {
					count++
				}
			}

			return a.print(downloadResponse{
				Envelope:   outfmt.OK(sess.Account()),
				MessageID:  args[0],
				Downloaded: downloaded,
				Count:      count,
				OutputDir:  dir,
			})
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory (default: current dir)")
	cmd.Flags().StringVarP(&filter, "filename", "f", "", "only download filenames containing this text")
	cmd.Flags().StringVarP(&prefix, "prefix", "p", "", "prefix for saved filenames")

	return cmd
}

func newSearchDownloadCmd() *cobra.Command {
	var (
		query     string
		outputDir string
		limit     int64
		prefix    string
	)

	cmd := &cobra.Command{
		Use:   "search-download",
		Short: "Search messages and download all their attachments",
		Long: `Search messages with a Gmail query and download every attachment they
carry. Saved filenames are prefixed with the account name so runs over
several accounts can share a directory. Each download is annotated with
the message's subject and date.

Examples:
  gmailagent search-download -q "from:bank has:attachment" -o statements
  gmailagent search-download -q "invoice has:attachment newer_than:1y" -p 2026`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			sess, err := a.session(cmd.Context())
			if err != nil {
				return err
			}

			dir := outputDir
			if dir == "" {
				dir = "."
			}

			filePrefix := sess.Name()
			if prefix != "" {
				filePrefix += "_" + prefix
			}

			report, err := sess.SearchDownload(cmd.Context(), query, limit, gmail.DownloadOptions{
				Dir:    dir,
				Prefix: filePrefix,
			})
			if err != nil {
				return a.operr(sess.Account(), err)
			}
			if report.Downloaded == nil {
				report.Downloaded = []gmail.DownloadResult{}
			}
			if report.Emails == nil {
				report.Emails = []gmail.EmailAttachments{}
			}

			total := 0
			for _, d := range report.Downloaded {
				if d.SavedAs != "" {
					total++
				}
			}

			return a.print(searchDownloadResponse{
				Envelope:              outfmt.OK(sess.Account()),
				Query:                 query,
				EmailsSearched:        report.EmailsSearched,
				EmailsWithAttachments: len(report.Emails),
				TotalDownloaded:       total,
				OutputDir:             dir,
				DownloadedFiles:       report.Downloaded,
				Emails:                report.Emails,
			})
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "Gmail search query")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory (default: current dir)")
	cmd.Flags().Int64VarP(&limit, "limit", "n", 100, "maximum number of messages to search")
	cmd.Flags().StringVarP(&prefix, "prefix", "p", "", "extra prefix after the account name")
	_ = cmd.MarkFlagRequired("query")

	return cmd
}
