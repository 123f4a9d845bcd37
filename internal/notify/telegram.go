// Package notify sends reservation alerts and digests to restaurant staff
// over Telegram.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/table_reservation/internal/model"
	"github.com/Freeeeeet/table_reservation/internal/schedule"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Sender is the part of *bot.Bot the notifier uses.
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// RestaurantReader looks up restaurants and their staff chat settings.
type RestaurantReader interface {
	GetRestaurant(ctx context.Context, id uuid.UUID) (*model.Restaurant, error)
	ListRestaurants(ctx context.Context) ([]*model.Restaurant, error)
}

// ReservationLister lists a restaurant's reservations.
type ReservationLister interface {
	ListRestaurantReservations(ctx context.Context, restaurantID uuid.UUID, filter model.ReservationFilter) ([]*model.Reservation, error)
}

type Notifier struct {
	sender       Sender
	restaurants  RestaurantReader
	reservations ReservationLister
	clock        func() time.Time
	logger       *zap.Logger
}

func NewNotifier(sender Sender, restaurants RestaurantReader, reservations ReservationLister, logger *zap.Logger) *Notifier {
	return &Notifier{
		sender:       sender,
		restaurants:  restaurants,
		reservations: reservations,
		clock:        time.Now,
		logger:       logger,
	}
}

// wantsAlert applies the restaurant's notification settings to an event.
func wantsAlert(settings model.NotificationSettings, t model.EventType) bool {
	switch t {
	case model.EventReservationCreated, model.EventReservationRescheduled:
		return settings.BookingAlerts
	case model.EventReservationCancelled:
		return settings.CancellationAlerts
	}
	return false
}

// Emit alerts the restaurant's staff chat about new, moved and cancelled
// reservations. Restaurants without a chat or with the alert disabled are
// skipped.
func (n *Notifier) Emit(ctx context.Context, event model.ReservationEvent) error {
	restaurant, err := n.restaurants.GetRestaurant(ctx, event.RestaurantID)
	if err != nil {
		return fmt.Errorf("get restaurant: %w", err)
	}
	if restaurant == nil || restaurant.StaffChatID == nil {
		return nil
	}
	if !wantsAlert(restaurant.Notifications, event.Type) {
		return nil
	}

	_, err = n.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: *restaurant.StaffChatID,
		Text:   FormatEvent(restaurant, event),
	})
	if err != nil {
		return fmt.Errorf("send staff alert: %w", err)
	}

	n.logger.Debug("Staff alert sent",
		zap.String("restaurant_id", restaurant.ID.String()),
		zap.String("event", string(event.Type)),
	)
	return nil
}

// SendPendingDigest sends every restaurant with a staff chat the list of its
// upcoming reservations that still await confirmation. It returns the number
// of digests sent.
func (n *Notifier) SendPendingDigest(ctx context.Context) (int, error) {
	restaurants, err := n.restaurants.ListRestaurants(ctx)
	if err != nil {
		return 0, fmt.Errorf("list restaurants: %w", err)
	}

	sent := 0
	for _, restaurant := range restaurants {
		if restaurant.StaffChatID == nil {
			continue
		}

		today := schedule.DateOf(n.clock(), restaurant.Location())
		pending, err := n.reservations.ListRestaurantReservations(ctx, restaurant.ID, model.ReservationFilter{
			Status: model.ReservationStatusPending,
			From:   &today,
		})
		if err != nil {
			n.logger.Error("Failed to list pending reservations",
				zap.String("restaurant_id", restaurant.ID.String()),
				zap.Error(err),
			)
			continue
		}
		if len(pending) == 0 {
			continue
		}

		_, err = n.sender.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: *restaurant.StaffChatID,
			Text:   FormatDigest(restaurant, pending),
		})
		if err != nil {
			n.logger.Error("Failed to send pending digest",
				zap.String("restaurant_id", restaurant.ID.String()),
				zap.Error(err),
			)
			continue
		}
		sent++
	}

	return sent, nil
}
