package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"booking-svc/cache"
	"booking-svc/models"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const roomCacheTTL = 5 * time.Minute

type RoomHandler struct {
	db          *sql.DB
	redisClient *redis.Client
	logger      *zap.Logger
}

func NewRoomHandler(db *sql.DB, redisClient *redis.Client, logger *zap.Logger) *RoomHandler {
	return &RoomHandler{db: db, redisClient: redisClient, logger: logger}
}

const roomColumns = "id, name, slug, type, price, price_usd, description, features, image, rating, max_guests, total_rooms, is_active, created_at, updated_at"

func scanRoom(row interface{ Scan(...interface{}) error }) (models.Room, error) {
	var r models.Room
	err := row.Scan(&r.ID, &r.Name, &r.Slug, &r.Type, &r.Price, &r.PriceUSD,
		&r.Description, pq.Array(&r.Features), &r.Image, &r.Rating,
		&r.MaxGuests, &r.TotalRooms, &r.IsActive, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

// GetRooms lists active rooms ordered by price.
func (h *RoomHandler) GetRooms(c *gin.Context) {
	ctx, span := otel.Tracer("booking-service").Start(c.Request.Context(), "GetRooms")
	defer span.End()

	rows, err := h.db.QueryContext(ctx,
		"SELECT "+roomColumns+" FROM rooms WHERE is_active = TRUE ORDER BY price ASC")
	if err != nil {
		span.RecordError(err)
		h.logger.Error("Failed to fetch rooms", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal server error"})
		return
	}
	defer rows.Close()

	rooms := []models.Room{}
	for rows.Next() {
		r, err := scanRoom(rows)
		if err != nil {
			span.RecordError(err)
			h.logger.Error("Failed to scan room", zap.Error(err))
			continue
		}
		rooms = append(rooms, r)
	}

	span.SetAttributes(attribute.Int("rooms.count", len(rooms)))
	c.JSON(http.StatusOK, gin.H{"success": true, "data": rooms})
}

func (h *RoomHandler) GetRoom(c *gin.Context) {
	ctx, span := otel.Tracer("booking-service").Start(c.Request.Context(), "GetRoom")
	defer span.End()

	id := c.Param("id")
	span.SetAttributes(attribute.String("room.id", id))

	// Try the cache first
	cachedData, err := cache.GetRoom(ctx, h.redisClient, id)
	if err == nil {
		var room models.Room
		if err := json.Unmarshal(cachedData, &room); err == nil {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			c.JSON(http.StatusOK, gin.H{"success": true, "data": room})
			return
		}
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	room, err := scanRoom(h.db.QueryRowContext(ctx,
		"SELECT "+roomColumns+" FROM rooms WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Room not found"})
			return
		}
		span.RecordError(err)
		h.logger.Error("Failed to fetch room", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal server error"})
		return
	}

	if err := cache.SetRoom(ctx, h.redisClient, id, room, roomCacheTTL); err != nil {
		h.logger.Warn("Failed to cache room", zap.String("room_id", id), zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": room})
}

func (h *RoomHandler) CreateRoom(c *gin.Context) {
	ctx, span := otel.Tracer("booking-service").Start(c.Request.Context(), "CreateRoom")
	defer span.End()

	var req models.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	if req.Slug == "" {
		req.Slug = strings.ReplaceAll(strings.ToLower(req.Name), " ", "-")
	}
	if req.Rating == "" {
		req.Rating = "4.7"
	}
	if req.MaxGuests == 0 {
		req.MaxGuests = 2
	}
	if req.TotalRooms == 0 {
		req.TotalRooms = 5
	}
	if req.Features == nil {
		req.Features = []string{}
	}

	room, err := scanRoom(h.db.QueryRowContext(ctx,
		`INSERT INTO rooms (name, slug, type, price, price_usd, description, features, image, rating, max_guests, total_rooms)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING `+roomColumns,
		req.Name, req.Slug, req.Type, req.Price, req.PriceUSD, req.Description,
		pq.Array(req.Features), req.Image, req.Rating, req.MaxGuests, req.TotalRooms))
	if err != nil {
		span.RecordError(err)
		h.logger.Error("Failed to create room", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal server error"})
		return
	}

	span.SetAttributes(attribute.Int("room.id", room.ID))
	h.logger.Info("Room created", zap.Int("room_id", room.ID), zap.String("slug", room.Slug))
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": room})
}

func (h *RoomHandler) UpdateRoom(c *gin.Context) {
	ctx, span := otel.Tracer("booking-service").Start(c.Request.Context(), "UpdateRoom")
	defer span.End()

	id := c.Param("id")
	span.SetAttributes(attribute.String("room.id", id))

	var req models.UpdateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	// Build update query dynamically
	query := "UPDATE rooms SET updated_at = CURRENT_TIMESTAMP"
	args := []interface{}{}
	argPos := 1

	addArg := func(column string, value interface{}) {
		query += fmt.Sprintf(", %s = $%d", column, argPos)
		args = append(args, value)
		argPos++
	}

	if req.Name != nil {
		addArg("name", *req.Name)
	}
	if req.Slug != nil {
		addArg("slug", *req.Slug)
	}
	if req.Type != nil {
		addArg("type", *req.Type)
	}
	if req.Price != nil {
		addArg("price", *req.Price)
	}
	if req.PriceUSD != nil {
		addArg("price_usd", *req.PriceUSD)
	}
	if req.Description != nil {
		addArg("description", *req.Description)
	}
	if req.Features != nil {
		addArg("features", pq.Array(*req.Features))
	}
	if req.Image != nil {
		addArg("image", *req.Image)
	}
	if req.Rating != nil {
		addArg("rating", *req.Rating)
	}
	if req.MaxGuests != nil {
		addArg("max_guests", *req.MaxGuests)
	}
	if req.TotalRooms != nil {
		addArg("total_rooms", *req.TotalRooms)
	}
	if req.IsActive != nil {
		addArg("is_active", *req.IsActive)
	}

	query += fmt.Sprintf(" WHERE id = $%d RETURNING %s", argPos, roomColumns)
	args = append(args, id)

	room, err := scanRoom(h.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Room not found"})
			return
		}
		span.RecordError(err)
		h.logger.Error("Failed to update room", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal server error"})
		return
	}

	if err := cache.DeleteRoom(ctx, h.redisClient, id); err != nil {
		h.logger.Warn("Failed to invalidate room cache", zap.String("room_id", id), zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": room})
}

// DeleteRoom soft-deletes: in-flight bookings against the room still complete.
func (h *RoomHandler) DeleteRoom(c *gin.Context) {
	ctx, span := otel.Tracer("booking-service").Start(c.Request.Context(), "DeleteRoom")
	defer span.End()

	id := c.Param("id")
	span.SetAttributes(attribute.String("room.id", id))

	res, err := h.db.ExecContext(ctx,
		"UPDATE rooms SET is_active = FALSE, updated_at = CURRENT_TIMESTAMP WHERE id = $1", id)
	if err != nil {
		span.RecordError(err)
		h.logger.Error("Failed to deactivate room", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal server error"})
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Room not found"})
		return
	}

	if err := cache.DeleteRoom(ctx, h.redisClient, id); err != nil {
		h.logger.Warn("Failed to invalidate room cache", zap.String("room_id", id), zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Room deactivated"})
}
