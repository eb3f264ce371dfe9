package pgsql

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/lib/pq"
	"go.vocdoni.io/analytics/config"
	"go.vocdoni.io/dvote/log"
)

// ResultsUpdateChannel is the postgres channel where the voting backend
// announces changes on the results of an election
const ResultsUpdateChannel = "election_results_update"

var electionIDRegexp = regexp.MustCompile(`ELECTION\s?=?\s?(\d+)`)

// notifier encapsulates the state of the listener connection.
type notifier struct {
	listener *pq.Listener
	failed   chan error
}

func NewNotifier(dbc *config.DB, channelName string) (*notifier, error) {
	notifier := &notifier{failed: make(chan error, 2)}
	listener := pq.NewListener(fmt.Sprintf("host=%s port=%d user=%s password=%s"+
		" dbname=%s sslmode=%s client_encoding=%s",
		dbc.Host, dbc.Port, dbc.User, dbc.Password, dbc.Dbname,
		dbc.Sslmode, "UTF8"), 2*time.Second, time.Minute, notifier.logListener)
	if err := listener.Listen(channelName); err != nil {
		listener.Close()
		log.Errorf("could not start %s listener: %v", channelName, err)
		return nil, err
	}
	notifier.listener = listener
	return notifier, nil
}

// Listen is the main loop of the notifier. It calls invalidate with the
// election id carried by every notification until ctx is done.
func (n *notifier) Listen(ctx context.Context, invalidate func(electionID int) error) {
	defer n.listener.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-n.listener.Notify:
			if e == nil {
				continue
			}
			log.Debug("pgsql notified: ", e.Extra)
			id, err := parseElectionID(e.Extra)
			if err != nil {
				log.Warn(err)
				continue
			}
			if err := invalidate(id); err != nil {
				log.Errorf("could not invalidate election %d: %v", id, err)
			}
		case err := <-n.failed:
			log.Error(err)
		case <-time.After(time.Minute):
			go func() {
				err := n.listener.Ping()
				if err != nil {
					log.Error(err)
				}
			}()
		}
	}
}

// parseElectionID extracts the id from payloads like "UPDATE ELECTION=12"
func parseElectionID(payload string) (int, error) {
	m := electionIDRegexp.FindStringSubmatch(payload)
	if m == nil {
		return 0, fmt.Errorf("notification %q carries no election id", payload)
	}
	return strconv.Atoi(m[1])
}

func (n *notifier) logListener(event pq.ListenerEventType, err error) {
	if err != nil {
		log.Errorf("pgsql listener error: %s\n", err)
	}
	if event == pq.ListenerEventConnectionAttemptFailed {
		select {
		case n.failed <- err:
		default:
		}
	}
}
