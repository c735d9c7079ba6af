package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"itinera/config"
	"itinera/dayplan"
	"itinera/db"
	"itinera/directions"
	"itinera/globals"
	"itinera/itinerary"
	"itinera/livefeed"
	"itinera/mq"
	"itinera/places"
	"itinera/ratelim"
	"itinera/rdx"
	"itinera/routes"

	"github.com/julienschmidt/httprouter"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"go.mongodb.org/mongo-driver/mongo"
)

// securityHeaders applies a set of recommended HTTP security headers.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "frame-ancestors 'none'")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs each request method, path, remote address, and duration.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s from %s - %v", r.Method, r.RequestURI, r.RemoteAddr, time.Since(start))
	})
}

// Index is a simple health check handler.
func Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	fmt.Fprint(w, "200")
}

// backends holds the optional external connections so they can be closed
// on shutdown.
type backends struct {
	mongo *mongo.Client
	redis *redis.Client
}

func (b *backends) close() {
	if b.redis != nil {
		if err := b.redis.Close(); err != nil {
			log.Printf("[Redis] close: %v", err)
		}
	}
	if b.mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := b.mongo.Disconnect(ctx); err != nil {
			log.Printf("[DB] disconnect: %v", err)
		}
	}
}

// openStore picks the persistence backend. The place directory only exists
// with MongoDB.
func openStore(ctx context.Context, cfg config.Config, b *backends) (itinerary.Store, itinerary.ForecastStore, itinerary.PlaceResolver, error) {
	if cfg.StoreBackend == "memory" {
		log.Println("[DB] Using in-memory store; data is lost on restart")
		mem := itinerary.NewMemoryStore()
		return mem, mem, nil, nil
	}

	client, database, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return nil, nil, nil, err
	}
	b.mongo = client

	store := db.NewStore(database)
	if err := store.EnsureIndexes(ctx); err != nil {
		return nil, nil, nil, err
	}
	return store, store, places.NewDirectory(database.Collection(db.PlacesCollection)), nil
}

// buildRouter layers the directions stack: retries with estimation fallback
// around an optional Redis cache around the Google client.
func buildRouter(cfg config.Config, conn *redis.Client) directions.Provider {
	if !cfg.DirectionsEnabled() {
		log.Println("[Directions] No API key; routes are estimated")
		return directions.NewResilient(nil, directions.DefaultRetryPolicy)
	}

	var provider directions.Provider = directions.NewClient(directions.ClientConfig{
		APIKey:            cfg.DirectionsAPIKey,
		BaseURL:           cfg.DirectionsBaseURL,
		Timeout:           cfg.DirectionsTimeout,
		RequestsPerSecond: cfg.DirectionsRPS,
	})
	if conn != nil {
		provider = directions.NewCached(provider, rdx.NewRouteCache(conn), cfg.RouteCacheTTL)
	}
	return directions.NewResilient(provider, directions.DefaultRetryPolicy)
}

func main() {
	cfg := config.Load()
	globals.JwtSecret = []byte(cfg.JwtSecret)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b := &backends{}
	store, forecasts, directory, err := openStore(ctx, cfg, b)
	if err != nil {
		log.Fatalf("❌ Store setup failed: %v", err)
	}

	if cfg.RedisAddr != "" {
		conn, err := rdx.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Printf("[Redis] %v; continuing without route cache and feed relay", err)
		} else {
			b.redis = conn
		}
	}

	// initialize live feed hub
	hub := livefeed.NewHub()
	go hub.Run()

	var events itinerary.Emitter = hub
	if b.redis != nil {
		events = mq.NewRedisEmitter(b.redis)
		go mq.StartFeedWorker(ctx, b.redis, hub.Publish)
	}

	planner := dayplan.New(
		time.Duration(cfg.DayStartHour)*time.Hour,
		time.Duration(cfg.DayEndHour)*time.Hour,
		time.Duration(cfg.SlotMinutes)*time.Minute,
	)
	scheduler := itinerary.NewScheduler(store, buildRouter(cfg, b.redis), directory, forecasts, events,
		itinerary.WithPlanner(planner),
		itinerary.WithShareBaseURL(cfg.PublicBaseURL),
	)

	rateLimiter := ratelim.NewRateLimiter(60, 10).TrustProxies(cfg.TrustedProxies)
	janitorStop := make(chan struct{})
	rateLimiter.StartJanitor(time.Minute, janitorStop)

	router := httprouter.New()
	router.GET("/health", Index)
	routes.RoutesWrapper(router, rateLimiter, routes.Deps{
		Scheduler: scheduler,
		Places:    directory,
		Hub:       hub,
	})

	// apply middleware: CORS → security headers → logging → router
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(router)

	server := &http.Server{
		Addr:              cfg.Port,
		Handler:           loggingMiddleware(securityHeaders(corsHandler)),
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	server.RegisterOnShutdown(func() {
		log.Println("🛑 Shutting down live feed...")
		hub.Stop()
		close(janitorStop)
	})

	go func() {
		log.Printf("🚀 Server listening on %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ ListenAndServe error: %v", err)
		}
	}()

	<-ctx.Done()

	log.Println("🛑 Shutdown signal received; shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("❌ Graceful shutdown failed: %v", err)
	}
	b.close()

	log.Println("✅ Server stopped cleanly")
}
