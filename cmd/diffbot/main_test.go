package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byteowlz/diffbot/internal/config"
	"github.com/byteowlz/diffbot/pkg/diffbot"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&diffbot.Error{Kind: diffbot.KindCredential}, ExitConfigError},
		{&diffbot.Error{Kind: diffbot.KindJobStatus}, ExitJobStatusError},
		{&diffbot.Error{Kind: diffbot.KindNotFound}, ExitNotFound},
		{&diffbot.Error{Kind: diffbot.KindResponse}, ExitNetworkError},
		{&diffbot.Error{Kind: diffbot.KindTransport}, ExitNetworkError},
		{errors.New("plain"), ExitNetworkError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, exitCode(tt.err), "%v", tt.err)
	}
}

func TestFail_KeepsExitErr(t *testing.T) {
	quiet = true
	defer func() { quiet = false }()

	e := &exitErr{code: ExitFileIOError, msg: "disk"}
	assert.Same(t, e, fail(e))
	assert.Equal(t, ExitNotFound, fail(&diffbot.Error{Kind: diffbot.KindNotFound, Job: "j"}).code)
}

func TestURLToFilename(t *testing.T) {
	assert.Equal(t, "example.com_a_b_x_1.md", urlToFilename("https://example.com/a/b?x=1", ".md"))
	assert.Equal(t, "example.com.txt", urlToFilename("http://example.com/", ".txt"))
}

func TestWriteJoined(t *testing.T) {
	cfg = config.Default()
	separator, nullSeparator = "", false

	var buf bytes.Buffer
	require.NoError(t, writeJoined(&buf, []document{{content: "one"}, {content: "two\n"}}))
	assert.Equal(t, "one\n---\ntwo\n", buf.String())

	buf.Reset()
	require.NoError(t, writeJoined(&buf, []document{{content: "only"}}))
	assert.Equal(t, "only\n", buf.String())
}

func TestExtractParams(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().AddFlagSet(extractCmd.Flags())
	require.NoError(t, cmd.ParseFlags([]string{"--fields", "meta,tags", "--paging=false", "--max-pages", "3"}))

	p, err := extractParams(cmd, diffbot.TypeArticle)
	require.NoError(t, err)
	assert.Equal(t, diffbot.Params{"fields": "meta,tags", "paging": "false"}, p)

	p, err = extractParams(cmd, diffbot.TypeDiscussion)
	require.NoError(t, err)
	assert.Equal(t, diffbot.Params{"fields": "meta,tags", "maxPages": "3"}, p)

	_, err = extractParams(cmd, "podcast")
	assert.Error(t, err)
}

func TestJobParams(t *testing.T) {
	crawl := newJobCmd(diffbot.FamilyCrawl)
	start, _, err := crawl.Find([]string{"start"})
	require.NoError(t, err)
	require.NoError(t, start.ParseFlags([]string{"--max-hops", "2", "--obey-robots=false", "--notify-email", "ops@example.com"}))

	jf := &jobFlags{family: diffbot.FamilyCrawl}
	p, err := jf.jobParams(start)
	require.NoError(t, err)
	assert.Equal(t, diffbot.Params{"maxHops": "2", "obeyRobots": "0", "notifyEmail": "ops@example.com"}, p)
}

func TestParseFamilyFlag(t *testing.T) {
	quiet = true
	defer func() { quiet = false }()

	assert.Equal(t, "crawl", searchCmd.Flags().Lookup("family").DefValue)

	got, err := parseFamily("bulk")
	require.NoError(t, err)
	assert.Equal(t, diffbot.FamilyBulk, got)

	_, err = parseFamily("news")
	var e *exitErr
	require.ErrorAs(t, err, &e)
	assert.Equal(t, ExitInvalidInput, e.code)
	assert.Contains(t, e.msg, "--family")
}
