package service

import (
	"encoding/json"

	"botpanel/backend/internal/model"
	"botpanel/backend/internal/util"
	"botpanel/backend/pkg/logger"
)

// StatusDispatcher routes status channel messages. Trade notices and any
// message carrying the refresh flag trigger a pull; errors are only logged.
type StatusDispatcher struct {
	refresher Refresher
	log       *logger.Logger
}

// NewStatusDispatcher creates a dispatcher asking refresher for pulls
func NewStatusDispatcher(refresher Refresher, log *logger.Logger) *StatusDispatcher {
	if log == nil {
		log = logger.GetLogger()
	}
	return &StatusDispatcher{refresher: refresher, log: log.Component("status-channel")}
}

// Dispatch handles one status message
func (d *StatusDispatcher) Dispatch(payload []byte) error {
	var msg model.StatusMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return util.ErrMalformedMessage(err)
	}

	kind := msg.Kind()
	switch {
	case kind.IsTrade() && msg.WantsRefresh():
		d.refresher.RequestRefresh()
	case kind == model.PushTypeError:
		d.log.Errorf("Bot reported an error: %s", msg.ErrorText())
	case msg.WantsRefresh():
		d.refresher.RequestRefresh()
	default:
		d.log.Debugf("Ignoring status message of type %q", kind)
	}
	return nil
}

// DashboardApplier takes inline dashboard snapshots
type DashboardApplier interface {
	ApplyDashboard(msg model.DashboardMessage)
}

// DashboardDispatcher routes dashboard channel messages. Full updates are
// applied directly without a pull.
type DashboardDispatcher struct {
	applier DashboardApplier
	log     *logger.Logger
}

// NewDashboardDispatcher creates a dispatcher feeding applier
func NewDashboardDispatcher(applier DashboardApplier, log *logger.Logger) *DashboardDispatcher {
	if log == nil {
		log = logger.GetLogger()
	}
	return &DashboardDispatcher{applier: applier, log: log.Component("dashboard-channel")}
}

// Dispatch handles one dashboard message
func (d *DashboardDispatcher) Dispatch(payload []byte) error {
	var msg model.DashboardMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return util.ErrMalformedMessage(err)
	}

	kind := msg.Kind()
	switch {
	case kind.IsConnectionNotice():
		d.log.Infof("Server says: %s", msg.Message)
	case kind.IsFullUpdate():
		d.log.Debugf("Dashboard update received at %s", msg.Timestamp)
		d.applier.ApplyDashboard(msg)
	default:
		d.log.Debugf("Ignoring dashboard message of type %q", kind)
	}
	return nil
}
