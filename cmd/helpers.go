package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/luckylittle/qbrecon/pkg/category"
	"github.com/luckylittle/qbrecon/pkg/client"
	"github.com/luckylittle/qbrecon/pkg/config"
	"github.com/luckylittle/qbrecon/pkg/expression"
	"github.com/luckylittle/qbrecon/pkg/notification"
	"github.com/luckylittle/qbrecon/pkg/reconcile"
	"github.com/luckylittle/qbrecon/pkg/tracker"
)

const defaultClientName = "default"

func getClientConfigString(setting string, clientConfig map[string]interface{}) (*string, error) {
	value, ok := clientConfig[setting]
	if !ok {
		return nil, fmt.Errorf("no %q setting found in client configuration: %+v", setting, clientConfig)
	}

	typedValue, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("failed type-asserting %q of client: %#v", setting, value)
	}

	return &typedValue, nil
}

func validateClientEnabled(clientConfig map[string]interface{}) error {
	v, ok := clientConfig["enabled"]
	if !ok {
		return fmt.Errorf("no enabled setting found in client configuration: %+v", clientConfig)
	}

	enabled, ok := v.(bool)
	if !ok || !enabled {
		return errors.New("client is not enabled")
	}

	return nil
}

func getClientFilter(clientConfig map[string]interface{}) (*config.FilterConfiguration, error) {
	filterName, err := getClientConfigString("filter", clientConfig)
	if err != nil {
		// filters are optional
		return nil, nil
	}

	return getFilter(*filterName)
}

func getFilter(filterName string) (*config.FilterConfiguration, error) {
	clientFilter, ok := config.Config.Filters[filterName]
	if !ok {
		return nil, fmt.Errorf("failed finding configuration of filter: %+v", filterName)
	}

	return &clientFilter, nil
}

func clientNameArg(args []string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	return defaultClientName
}

// session holds everything a command needs to run passes against one client.
type session struct {
	name   string
	client client.Interface
	runner *reconcile.Runner
	noti   notification.Sender
}

// newSession resolves, builds and connects the named client. Any failure here is
// fatal: nothing has been sent to the client yet.
func newSession(ctx context.Context, log *logrus.Entry, clientName string) *session {
	// retrieve client object
	clientConfig, ok := config.Config.Clients[clientName]
	if !ok {
		log.Fatalf("No client configuration found for: %q", clientName)
	}

	// validate client is enabled
	if err := validateClientEnabled(clientConfig); err != nil {
		log.WithError(err).Fatal("Failed validating client is enabled")
	}

	// retrieve client type
	clientType, err := getClientConfigString("type", clientConfig)
	if err != nil {
		log.WithError(err).Fatal("Failed determining client type")
	}

	// retrieve client filters
	clientFilter, err := getClientFilter(clientConfig)
	if err != nil {
		log.WithError(err).Fatal("Failed retrieving client filter")
	}

	if flagFilterName != "" {
		clientFilter, err = getFilter(flagFilterName)
		if err != nil {
			log.WithError(err).Fatal("Failed retrieving specified filter")
		}
	}

	// compile client filters
	exp, err := expression.Compile(clientFilter)
	if err != nil {
		log.WithError(err).Fatal("Failed compiling client filters")
	}

	// load client object
	c, err := client.NewClient(*clientType, clientName)
	if err != nil {
		log.WithError(err).Fatalf("Failed initializing client: %q", clientName)
	}

	log.Infof("Initialized client %q, type: %s (%d ignore filters)", clientName, c.Type(), len(exp.Ignores))

	// connect to client
	if err := c.Connect(ctx); err != nil {
		log.WithError(err).Fatal("Failed connecting")
	} else {
		log.Debugf("Connected to client")
	}

	return &session{
		name:   clientName,
		client: c,
		runner: reconcile.New(c,
			reconcile.WithLogger(log),
			reconcile.WithDryRun(flagDryRun),
			reconcile.WithWorkers(config.Config.Workers),
			reconcile.WithRateLimit(config.Config.RateLimit),
			reconcile.WithBatchSize(config.Config.BatchSize),
			reconcile.WithIgnore(exp),
		),
		noti: notification.NewDiscordSender(log, config.Config.Notifications),
	}
}

func matchPolicy(log *logrus.Entry) tracker.MatchFunc {
	match, err := tracker.MatchPolicy(config.Config.MatchPolicy)
	if err != nil {
		log.WithError(err).Fatal("Failed loading match policy")
	}
	return match
}

func categoryRules() category.RuleSet {
	return category.NewRuleSet(config.Config.Categories)
}

// finishPass logs the report summary and sends it as a notification.
func (s *session) finishPass(ctx context.Context, log *logrus.Entry, title string, action notification.Action,
	report reconcile.Report, start time.Time) {
	log.Info("-----")
	log.Infof("Ignored torrents: %d", report.Ignored)
	log.Infof("Changed torrents (%s): %d, %d failures", report.Mode, report.Mutated, report.Failed)
	for _, o := range report.Failures() {
		log.WithError(o.Err).WithField("hash", o.Hash).Warnf("Failed: %q", o.Name)
	}

	if !s.noti.CanSend() {
		return
	}

	fields := make([]notification.Field, 0, len(report.Outcomes))
	for _, o := range report.Outcomes {
		opt := notification.BuildOptions{Name: o.Name, Size: o.Size, From: o.From, To: o.To}
		if o.Err != nil {
			opt.Error = o.Err.Error()
		}
		fields = append(fields, s.noti.BuildField(action, opt))
	}

	description := fmt.Sprintf("Processed %d torrents: %d changed, %d failures, %d ignored",
		report.Processed, report.Mutated, report.Failed, report.Ignored)
	if err := s.noti.Send(ctx, title, description, s.name, time.Since(start), fields, flagDryRun); err != nil {
		log.WithError(err).Error("Failed sending notification")
	}
}

// completePass reports a finished pass and returns its error. An interrupted pass
// still reports the torrents it changed before the interrupt.
func (s *session) completePass(ctx context.Context, log *logrus.Entry, title string, action notification.Action,
	report reconcile.Report, start time.Time, err error) error {
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	if err != nil {
		log.Warn("Interrupted, reporting partial results")
	}

	s.finishPass(context.WithoutCancel(ctx), log, title, action, report, start)
	return err
}

// runPasses runs pass once, or every interval when it is set. A pre-flight error
// on the first pass is fatal.
func runPasses(ctx context.Context, log *logrus.Entry, every time.Duration, pass func(context.Context) error) {
	first := true
	err := reconcile.Repeat(ctx, log, every, func(ctx context.Context) error {
		err := pass(ctx)
		if err != nil && first && !errors.Is(err, context.Canceled) {
			log.WithError(err).Fatal("Failed running pass")
		}
		first = false
		return err
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("Failed running pass")
	}
}
