package bootstrap

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/mizzouse/WeBot/internal/config"
	"github.com/mizzouse/WeBot/internal/entity"
	httpHandler "github.com/mizzouse/WeBot/internal/handler/bot/http"
	"github.com/mizzouse/WeBot/internal/infrastructure"
	"github.com/mizzouse/WeBot/internal/repository"
	"github.com/mizzouse/WeBot/internal/service/botstate"
	"github.com/mizzouse/WeBot/internal/service/broker"
	"github.com/mizzouse/WeBot/internal/service/dispatcher"
	"github.com/mizzouse/WeBot/internal/service/marketclock"
	"github.com/mizzouse/WeBot/internal/service/monitor"
	"github.com/mizzouse/WeBot/internal/service/portfolio"
	"github.com/mizzouse/WeBot/internal/service/tradebook"
	"github.com/mizzouse/WeBot/internal/util"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func StartBot(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clock, err := marketclock.New(config.Env.MarketSession)
	util.ContinueOrFatal(err)

	session := newBrokerSession(ctx)

	var (
		orderLog    entity.OrderLog
		orderReader httpHandler.OrderReader
		botDB       *sqlx.DB
	)

	dbCfg, hasDB := config.Env.Database["webot"]
	if hasDB && strings.TrimSpace(dbCfg.DSN) != "" {
		botDB, err = infrastructure.NewPostgresConnection(ctx, dbCfg)
		util.ContinueOrFatal(err)
		infrastructure.StartPostgresHealthCheck(ctx, botDB, dbCfg.PingInterval)

		orderRepo := repository.NewOrderResponseRepository(botDB)
		orderLog = orderRepo
		orderReader = orderRepo
	} else {
		logrus.Warn("no database configured, order responses go to the local file log")
		orderLog = repository.NewFileOrderLog("")
	}

	var stateStore botstate.Store
	var redisStore *botstate.RedisStore
	if redisCfg, ok := config.Env.Redis["bot"]; ok && strings.TrimSpace(redisCfg.CacheDSN) != "" {
		redisStore, err = botstate.NewRedisStore(redisCfg.CacheDSN)
		util.ContinueOrFatal(err)
		stateStore = redisStore

		if config.Env.Monitor.ResetStateOnStart {
			util.ContinueOrFatal(redisStore.Reset(ctx, config.Env.Monitor.StateKey))
		}
	}

	nc, js, err := infrastructure.NewJetstream()
	util.ContinueOrFatal(err)

	trades := tradebook.NewBook()
	positions := portfolio.NewBook(config.Env.Broker.Account)
	quotes := broker.NewQuoteCache()

	if stateStore != nil {
		restoreState(ctx, stateStore, trades, positions)
	}

	mon := monitor.New(monitor.Params{
		Config: monitor.Config{
			PollInterval: config.Env.Monitor.PollInterval,
			MaxSleep:     config.Env.Monitor.MaxSleep,
			StateKey:     config.Env.Monitor.StateKey,
		},
		Clock:      clock,
		Session:    session,
		Executor:   session,
		Trades:     trades,
		Positions:  positions,
		Dispatcher: dispatcher.New(orderLog),
		StateStore: stateStore,
		Jetstream:  js,
	})

	publishers := []entity.Publisher{mon}
	for _, v := range publishers {
		err = v.JetstreamEventInit(ctx)
		util.ContinueOrFatal(err)
	}

	subscribers := []entity.Subscriber{mon}
	for _, v := range subscribers {
		err = v.JetstreamEventSubscribe(ctx)
		util.ContinueOrFatal(err)
	}

	handle := mon.Start(ctx)

	if streamURL := strings.TrimSpace(config.Env.Broker.QuoteStreamURL); streamURL != "" {
		go runQuoteStream(ctx, streamURL, nil, quotes)
	}

	botHTTPHandler := httpHandler.NewBotHTTPHandler(trades, positions, mon, clock, orderReader, quotes)
	httpMux := http.NewServeMux()
	botHTTPHandler.Register(httpMux)

	httpPort := fmt.Sprintf(":%s", config.Env.Port["http"])
	httpServer := infrastructure.NewHTTPServerWithConfig(infrastructure.HTTPServerConfig{
		Addr:            httpPort,
		ShutdownTimeout: config.Env.GracefulShutdownTimeout,
	}, httpMux)

	go func() {
		err := httpServer.Start()
		if err != nil {
			logrus.Error(err)
		}
	}()
	logrus.Info(fmt.Sprintf("http server started on %s", httpPort))

	wait := gracefulShutdown(ctx, config.Env.GracefulShutdownTimeout, map[string]operation{
		"monitor": func(ctx context.Context) error {
			cancel()
			return handle.Stop()
		},
		"broker session": func(ctx context.Context) error {
			return session.Logout(ctx)
		},
		"http": func(ctx context.Context) error {
			return httpServer.Shutdown(ctx)
		},
		"nats connection": func(ctx context.Context) error {
			return infrastructure.CloseJetstream(nc)
		},
		"state store": func(ctx context.Context) error {
			if redisStore == nil {
				return nil
			}
			return redisStore.Close()
		},
		"bot database": func(ctx context.Context) error {
			if botDB == nil {
				return nil
			}
			return botDB.Close()
		},
	})

	<-wait
}

// newBrokerSession logs in against the configured broker, falling back to an
// interactive MFA exchange when the plain login is rejected.
func newBrokerSession(ctx context.Context) entity.BrokerSession {
	creds, err := config.LoadCredentials(config.Env.Broker.CredentialsPath)
	util.ContinueOrFatal(err)

	if config.Env.Broker.PaperTrading {
		session := broker.NewPaperSession()
		util.ContinueOrFatal(session.Login(ctx, creds))
		_, err = session.UnlockTrading(ctx, creds.TradeToken)
		util.ContinueOrFatal(err)
		logrus.Info("paper trading session established")

		return session
	}

	session := broker.NewWebullSession(config.Env.Broker)
	if err := session.Login(ctx, creds); err != nil {
		logrus.Warnf("login rejected, requesting mfa code: %v", err)

		sent, mfaErr := session.RequestMFA(ctx, creds.Username)
		util.ContinueOrFatal(mfaErr)
		if !sent {
			util.ContinueOrFatal(fmt.Errorf("mfa code request rejected for %s", creds.Username))
		}

		code := promptLine(fmt.Sprintf("enter the mfa code sent to %s: ", creds.Username))
		util.ContinueOrFatal(session.LoginMFA(ctx, creds, entity.MFALogin{
			DeviceName: config.Env.Broker.DeviceName,
			Code:       code,
		}))
	}

	unlocked, err := session.UnlockTrading(ctx, creds.TradeToken)
	util.ContinueOrFatal(err)
	if !unlocked {
		util.ContinueOrFatal(fmt.Errorf("trade unlock rejected for %s", creds.Username))
	}

	logrus.WithFields(logrus.Fields{
		"account": config.Env.Broker.Account,
		"device":  config.Env.Broker.DeviceName,
	}).Info("broker session established")

	return session
}

// restoreState reloads the books from the last persisted monitor snapshot.
func restoreState(ctx context.Context, store botstate.Store, trades *tradebook.Book, positions *portfolio.Book) {
	state, found, err := store.Load(ctx, config.Env.Monitor.StateKey)
	if err != nil {
		logrus.WithError(err).Warn("failed to load persisted monitor state, starting fresh")
		return
	}
	if !found {
		return
	}

	for _, trade := range state.Trades {
		restored := trades.Replace(trade.Key, tradebook.TradeSpec{
			Symbol:         trade.Symbol,
			Side:           trade.Side,
			Direction:      trade.Direction,
			Kind:           trade.Kind,
			Price:          trade.Price,
			StopLimitPrice: trade.StopLimitPrice,
			Quantity:       trade.Quantity,
		})
		restored.Executed = trade.Executed
		restored.OrderID = trade.OrderID
	}
	positions.UpsertAll(state.Positions)

	logrus.WithFields(logrus.Fields{
		"phase":      state.Phase,
		"trades":     len(state.Trades),
		"positions":  len(state.Positions),
		"updated_at": state.UpdatedAt,
	}).Info("restored persisted monitor state")
}

func promptLine(prompt string) string {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')

	return strings.TrimSpace(line)
}
