//go:build integration

package usecase_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/infra/db"
	"storefront/internal/infra/notify"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/logger"
	"storefront/internal/testutil"
	"storefront/internal/usecase"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

func startPostgres(t *testing.T) *gorm.DB {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	t.Cleanup(cancel)

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "testuser",
				"POSTGRES_PASSWORD": "testpass",
				"POSTGRES_DB":       "testdb",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("host=%s port=%s user=testuser password=testpass dbname=testdb sslmode=disable", host, port.Port())
	gdb, err := db.Connect(dsn)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	return gdb
}

func startRabbitMQ(t *testing.T) *amqp.Connection {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	t.Cleanup(cancel)

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "rabbitmq:3.13-alpine",
			ExposedPorts: []string{"5672/tcp"},
			WaitingFor:   wait.ForListeningPort("5672/tcp").WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5672")
	require.NoError(t, err)

	conn, err := amqp.DialConfig("amqp://"+host+":"+port.Port()+"/", amqp.Config{
		Dial: amqp.DefaultDial(10 * time.Second),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// PostgreSQLの行ロックとRabbitMQへの通知まで通す
func TestCheckoutIntegration_PostgresAndRabbitMQ(t *testing.T) {
	gdb := startPostgres(t)
	conn := startRabbitMQ(t)
	_, rdb := testutil.NewRedis(t)
	log := logger.Discard()

	notifier, err := notify.NewAMQPNotifier(conn, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = notifier.Close() })

	sessions := infraRepo.NewCartSessionRedisRepository(rdb, time.Hour)
	txm := infraRepo.NewTxManagerGorm(gdb)
	cart := usecase.NewCartUsecase(sessions, infraRepo.NewProductGormRepository(gdb), uuidGen{})
	checkout := usecase.NewCheckoutUsecase(txm, cart, infraRepo.NewUserGormRepository(gdb), notifier, uuidGen{}, log)

	last := model.Product{Name: "Last", Price: decimal.RequireFromString("10.00"), Stock: 1, IsActive: true}
	require.NoError(t, gdb.Create(&last).Error)

	buyers := make([]model.Actor, 0, 4)
	for i := range 4 {
		u := model.User{Email: fmt.Sprintf("u%d@example.com", i), Role: model.RoleUser, IsActive: true}
		require.NoError(t, gdb.Create(&u).Error)
		buyers = append(buyers, model.Actor{UserID: u.ID, Role: u.Role})
		_, err := cart.AddIncremental(t.Context(), fmt.Sprintf("sid-%d", i), last.ID, 1)
		require.NoError(t, err)
	}

	errs := make([]error, len(buyers))
	var g errgroup.Group
	for i, b := range buyers {
		g.Go(func() error {
			_, errs[i] = checkout.Checkout(t.Context(), fmt.Sprintf("sid-%d", i), b, usecase.CheckoutInput{ShippingAddress: "Tokyo"})
			return nil
		})
	}
	require.NoError(t, g.Wait())

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.True(t, errors.Is(err, usecase.ErrInsufficientStock), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, ok)

	var p model.Product
	require.NoError(t, gdb.First(&p, last.ID).Error)
	assert.Equal(t, int64(0), p.Stock)

	ch, err := conn.Channel()
	require.NoError(t, err)
	defer ch.Close()

	require.Eventually(t, func() bool {
		q, err := ch.QueueDeclarePassive(notify.OrderConfirmedQueue, true, false, false, false, nil)
		return err == nil && q.Messages == 1
	}, 10*time.Second, 200*time.Millisecond)

	msg, got, err := ch.Get(notify.OrderConfirmedQueue, true)
	require.NoError(t, err)
	require.True(t, got)
	var ev notify.OrderConfirmed
	require.NoError(t, json.Unmarshal(msg.Body, &ev))
	assert.Equal(t, "10.00", ev.TotalPrice)
}
