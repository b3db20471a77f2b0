// Command emulator starts the Firestore v1 gRPC listener and the Identity
// Toolkit HTTP listener side by side, per spec.md §6.
package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"google.golang.org/grpc"

	firestorepb "google.golang.org/genproto/googleapis/firestore/v1"

	"firestore-emulator/internal/config"
	"firestore-emulator/internal/di"
	"firestore-emulator/internal/shared/middleware"
)

func main() {
	fmt.Println("Firestore emulator starting...")

	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg := config.Get()
	container := di.NewContainer(cfg)
	appLogger := container.Logger

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(middleware.UnaryServerInterceptor(appLogger)),
		grpc.ChainStreamInterceptor(middleware.StreamServerInterceptor(appLogger)),
	)
	firestorepb.RegisterFirestoreServer(grpcServer, container.FirestoreGRPC)

	listener, err := net.Listen("tcp", cfg.ListenAddr())
	if err != nil {
		log.Fatalf("failed to bind Firestore gRPC listener on %s: %v", cfg.ListenAddr(), err)
	}

	httpApp := fiber.New(fiber.Config{
		AppName:      "firestore-emulator identity toolkit",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})
	httpApp.Use(recover.New())
	httpApp.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	httpApp.Use(middleware.Fiber(appLogger))
	httpApp.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "HEALTHY"})
	})
	container.IdentityRouter.Register(httpApp)

	grpcErrCh := make(chan error, 1)
	go func() {
		appLogger.Infof("Firestore gRPC listening on %s", cfg.ListenAddr())
		grpcErrCh <- grpcServer.Serve(listener)
	}()

	httpErrCh := make(chan error, 1)
	go func() {
		appLogger.Infof("Identity Toolkit HTTP listening on %s", cfg.AuthListenAddr())
		httpErrCh <- httpApp.Listen(cfg.AuthListenAddr())
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-grpcErrCh:
		if err != nil {
			appLogger.Errorf("Firestore gRPC server stopped: %v", err)
		}
	case err := <-httpErrCh:
		if err != nil {
			appLogger.Errorf("Identity Toolkit HTTP server stopped: %v", err)
		}
	case sig := <-quit:
		appLogger.Infof("received shutdown signal: %v", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stopped := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-shutdownCtx.Done():
		grpcServer.Stop()
	}
	if err := httpApp.ShutdownWithContext(shutdownCtx); err != nil {
		appLogger.Errorf("HTTP server forced to shutdown: %v", err)
	}

	fmt.Println("Firestore emulator stopped.")
}
