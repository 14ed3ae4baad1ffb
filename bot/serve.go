package bot

import (
	"bufio"
	"context"
	"io"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/domino14/tetrizz/config"
)

const maxLine = 1 << 20

// RunLoop answers line-delimited JSON requests from r on w until r is
// exhausted or ctx is done.
func (bot *Bot) RunLoop(ctx context.Context, r io.Reader, w io.Writer) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	bw := bufio.NewWriter(w)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		bw.Write(bot.HandleBytes(line))
		bw.WriteByte('\n')
		if err := bw.Flush(); err != nil {
			return err
		}
	}
	return sc.Err()
}

// Serve answers the same requests over NATS request/reply on subject
// until ctx is done.
func (bot *Bot) Serve(ctx context.Context, subject string) error {
	url := bot.config.GetString(config.ConfigNatsURL)
	var nc *nats.Conn
	err := retry.Do(
		func() error {
			var err error
			nc, err = nats.Connect(url)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(5),
		retry.Delay(200*time.Millisecond),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			log.Err(err).Uint("n", n).Str("url", url).Msg("nats-connect-failed-trying-again")
			return retry.BackOffDelay(n, err, config)
		}),
	)
	if err != nil {
		return err
	}
	defer nc.Drain()

	_, err = nc.Subscribe(subject, func(m *nats.Msg) {
		log.Debug().Int("bytes", len(m.Data)).Msg("recv")
		if err := m.Respond(bot.HandleBytes(m.Data)); err != nil {
			log.Err(err).Msg("respond-failed")
		}
	})
	if err != nil {
		return err
	}
	if err := nc.Flush(); err != nil {
		return err
	}
	log.Info().Str("subject", subject).Msg("listening")
	<-ctx.Done()
	return nil
}
