// Package monitoring provides alerting capabilities for the SmartEdu client
package monitoring

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// AlertSeverity represents the severity level of an alert
type AlertSeverity string

const (
	SeverityLow      AlertSeverity = "low"
	SeverityMedium   AlertSeverity = "medium"
	SeverityHigh     AlertSeverity = "high"
	SeverityCritical AlertSeverity = "critical"
)

// AlertType represents the type of alert
type AlertType string

const (
	AlertTypeGenerationTimeouts AlertType = "generation_timeouts"
	AlertTypeBackendErrors      AlertType = "backend_errors"
)

// Alert represents an alert
type Alert struct {
	ID          string            `json:"id"`
	Type        AlertType         `json:"type"`
	Severity    AlertSeverity     `json:"severity"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Timestamp   time.Time         `json:"timestamp"`
	Labels      map[string]string `json:"labels"`
	Resolved    bool              `json:"resolved"`
	ResolvedAt  *time.Time        `json:"resolved_at,omitempty"`
}

// AlertRule defines a rule for generating alerts. Condition receives the
// counters collected since the previous evaluation.
type AlertRule struct {
	Name        string
	Type        AlertType
	Severity    AlertSeverity
	Condition   func(w WindowStats) bool
	Title       string
	Description string
	Labels      map[string]string
	Enabled     bool
}

// WindowStats is a snapshot of the window counters
type WindowStats struct {
	WatchersFinished int64
	WatchersTimedOut int64
	BackendRequests  int64
	BackendErrors    int64
}

// Notifier interface for sending alert notifications
type Notifier interface {
	Send(alert *Alert) error
	Name() string
}

// LogNotifier sends alerts to the log
type LogNotifier struct {
	logger *logrus.Logger
}

// NewLogNotifier creates a new log notifier
func NewLogNotifier(logger *logrus.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Name() string {
	return "log"
}

func (n *LogNotifier) Send(alert *Alert) error {
	level := logrus.InfoLevel
	switch alert.Severity {
	case SeverityHigh:
		level = logrus.WarnLevel
	case SeverityCritical:
		level = logrus.ErrorLevel
	}

	n.logger.WithFields(logrus.Fields{
		"alert_id":   alert.ID,
		"alert_type": alert.Type,
		"severity":   alert.Severity,
		"labels":     alert.Labels,
	}).Log(level, fmt.Sprintf("ALERT: %s - %s", alert.Title, alert.Description))

	return nil
}

// AlertManager evaluates alert rules over the window counters and keeps
// at most one active alert per type.
type AlertManager struct {
	alerts    map[string]*Alert
	mutex     sync.RWMutex
	logger    *logrus.Logger
	rules     []AlertRule
	notifiers []Notifier
	interval  time.Duration
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewAlertManager creates a new alert manager and starts evaluating rules
// every interval.
func NewAlertManager(logger *logrus.Logger, interval time.Duration) *AlertManager {
	ctx, cancel := context.WithCancel(context.Background())

	am := &AlertManager{
		alerts:    make(map[string]*Alert),
		logger:    logger,
		rules:     DefaultAlertRules(),
		notifiers: []Notifier{NewLogNotifier(logger)},
		interval:  interval,
		ctx:       ctx,
		cancel:    cancel,
	}

	if interval > 0 {
		go am.evaluateRules()
	}

	return am
}

// DefaultAlertRules returns the rules installed by NewAlertManager
func DefaultAlertRules() []AlertRule {
	return []AlertRule{
		{
			Name:     "Generation Timeouts",
			Type:     AlertTypeGenerationTimeouts,
			Severity: SeverityHigh,
			Condition: func(w WindowStats) bool {
				return w.WatchersFinished >= 3 && w.WatchersTimedOut*2 >= w.WatchersFinished
			},
			Title:       "Generation jobs are timing out",
			Description: "At least half of the finished generation watchers gave up waiting",
			Labels:      map[string]string{"service": "smartedu"},
			Enabled:     true,
		},
		{
			Name:     "Backend Errors",
			Type:     AlertTypeBackendErrors,
			Severity: SeverityCritical,
			Condition: func(w WindowStats) bool {
				return w.BackendRequests >= 10 && w.BackendErrors*4 >= w.BackendRequests
			},
			Title:       "SmartEdu backend is failing",
			Description: "At least a quarter of backend requests failed with a server or network error",
			Labels:      map[string]string{"service": "smartedu"},
			Enabled:     true,
		},
	}
}

// snapshotWindow reads and resets the window counters
func snapshotWindow() WindowStats {
	return WindowStats{
		WatchersFinished: windowWatchersFinished.Swap(0),
		WatchersTimedOut: windowWatchersTimedOut.Swap(0),
		BackendRequests:  windowBackendRequests.Swap(0),
		BackendErrors:    windowBackendErrors.Swap(0),
	}
}

func (am *AlertManager) evaluateRules() {
	ticker := time.NewTicker(am.interval)
	defer ticker.Stop()

	for {
		select {
		case <-am.ctx.Done():
			return
		case <-ticker.C:
			am.Evaluate(snapshotWindow())
		}
	}
}

// Evaluate runs every enabled rule against stats. Rules that no longer hold
// resolve their active alert.
func (am *AlertManager) Evaluate(stats WindowStats) {
	am.mutex.RLock()
	rules := make([]AlertRule, len(am.rules))
	copy(rules, am.rules)
	am.mutex.RUnlock()

	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}
		if rule.Condition(stats) {
			am.triggerAlert(rule)
		} else {
			am.resolveType(rule.Type)
		}
	}
}

func (am *AlertManager) triggerAlert(rule AlertRule) {
	alert := &Alert{
		ID:          fmt.Sprintf("%s-%d", rule.Type, time.Now().UnixNano()),
		Type:        rule.Type,
		Severity:    rule.Severity,
		Title:       rule.Title,
		Description: rule.Description,
		Timestamp:   time.Now(),
		Labels:      rule.Labels,
	}

	am.mutex.Lock()
	for _, existing := range am.alerts {
		if existing.Type == rule.Type && !existing.Resolved {
			am.mutex.Unlock()
			return
		}
	}
	am.alerts[alert.ID] = alert
	notifiers := append([]Notifier(nil), am.notifiers...)
	am.mutex.Unlock()

	for _, notifier := range notifiers {
		if err := notifier.Send(alert); err != nil {
			am.logger.WithError(err).WithField("notifier", notifier.Name()).Error("Failed to send alert notification")
		}
	}
}

func (am *AlertManager) resolveType(alertType AlertType) {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	for id, alert := range am.alerts {
		if alert.Type == alertType && !alert.Resolved {
			now := time.Now()
			alert.Resolved = true
			alert.ResolvedAt = &now
			am.logger.WithFields(logrus.Fields{
				"alert_id": id,
				"type":     alert.Type,
			}).Info("Alert resolved")
		}
	}
}

// GetActiveAlerts returns all active (unresolved) alerts
func (am *AlertManager) GetActiveAlerts() []*Alert {
	am.mutex.RLock()
	defer am.mutex.RUnlock()

	var activeAlerts []*Alert
	for _, alert := range am.alerts {
		if !alert.Resolved {
			activeAlerts = append(activeAlerts, alert)
		}
	}

	return activeAlerts
}

// AddNotifier adds a new notifier
func (am *AlertManager) AddNotifier(notifier Notifier) {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	am.notifiers = append(am.notifiers, notifier)
}

// Stop stops the alert manager
func (am *AlertManager) Stop() {
	am.cancel()
}
