package monitor

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/mizzouse/WeBot/internal/config"
	"github.com/mizzouse/WeBot/internal/constant"
	"github.com/mizzouse/WeBot/internal/entity"
	"github.com/mizzouse/WeBot/internal/util"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

const defaultSignalHandlerTimeout = 5 * time.Second

// JetstreamEventInit ensures the signal and order streams exist.
func (m *Monitor) JetstreamEventInit(ctx context.Context) error {
	streams := []*nats.StreamConfig{
		{
			Name:      constant.SignalStreamName,
			Subjects:  []string{constant.SignalStreamSubjectAll},
			Storage:   nats.FileStorage,
			Retention: nats.LimitsPolicy,
			MaxAge:    5 * time.Minute,
			Replicas:  1,
		},
		{
			Name:      constant.OrderStreamName,
			Subjects:  []string{constant.OrderStreamSubjectAll},
			Storage:   nats.FileStorage,
			Retention: nats.LimitsPolicy,
			MaxAge:    24 * time.Hour,
			Replicas:  1,
		},
	}

	for _, streamConfig := range streams {
		stream, err := m.js.StreamInfo(streamConfig.Name, nats.Context(ctx))
		if err != nil && !errors.Is(err, nats.ErrStreamNotFound) {
			logrus.Error(err)
			return err
		}

		if stream == nil {
			logrus.Infof("creating stream: %s", streamConfig.Name)
			if _, err := m.js.AddStream(streamConfig, nats.Context(ctx)); err != nil {
				return err
			}
			continue
		}

		logrus.Infof("updating stream: %s", streamConfig.Name)
		if _, err := m.js.UpdateStream(streamConfig, nats.Context(ctx)); err != nil {
			logrus.Error(err)
			return err
		}
	}

	return nil
}

// JetstreamEventSubscribe wires inbound trade signals into the loop.
func (m *Monitor) JetstreamEventSubscribe(ctx context.Context) error {
	timeout := defaultSignalHandlerTimeout
	if config.Env != nil {
		if configured, ok := config.Env.NatsJetstream.TimeoutHandler["trade_signal"]; ok && configured > 0 {
			timeout = configured
		}
	}

	_, err := m.js.QueueSubscribe(
		constant.SignalStreamSubjectTrade,
		constant.SignalQueueGroup,
		func(msg *nats.Msg) {
			err := util.ProcessWithTimeout(timeout, msg, m.handleSignalEvent)
			if err != nil {
				logrus.Errorf("error processing message: %v", err)
			}
		},
	)

	return err
}

func (m *Monitor) handleSignalEvent(_ context.Context, msg *nats.Msg) error {
	var event entity.SignalEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		return err
	}

	if event.Data.Empty() {
		return nil
	}

	logrus.WithFields(logrus.Fields{
		"buys":  len(event.Data.Buys),
		"sells": len(event.Data.Sells),
	}).Debug("trade signal received")

	m.Offer(event.Data)

	return nil
}
