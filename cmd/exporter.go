package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/kardianos/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"fleetdeck/internal/transport"
	"fleetdeck/pkg/models"
)

// Variables to hold flag values
var (
	expServer     string
	expUser       string
	expPass       string
	expPort       string
	serviceAction string // "install", "uninstall", "start", "stop"
)

// --- SERVICE WRAPPER ---

// program implements the kardianos/service interface
type program struct {
	exit      chan struct{}
	server    *http.Server
	collector *FleetCollector
}

func (p *program) Start(s service.Service) error {
	// Start should not block. Do the actual work async.
	p.exit = make(chan struct{})
	go p.run()
	return nil
}

func (p *program) run() {
	registry := prometheus.NewRegistry()
	registry.MustRegister(p.collector)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		ErrorLog: log.Default(),
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)

	addr := fmt.Sprintf(":%s", expPort)
	p.server = &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	log.Printf("Fleet exporter listening on %s, scraping %s", addr, p.collector.Host)

	if err := p.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Printf("HTTP server error: %v", err)
	}
}

func (p *program) Stop(s service.Service) error {
	// Stop should not block. Signal the app to stop.
	log.Println("Stopping service...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if p.server != nil {
		if err := p.server.Shutdown(ctx); err != nil {
			log.Printf("Server forced to shutdown: %v", err)
		}
	}
	close(p.exit)
	return nil
}

// --- COLLECTOR ---

// FleetCollector scrapes the fleet server on every Prometheus pull.
type FleetCollector struct {
	Client *transport.Client
	Host   string
	Mutex  sync.Mutex
}

var (
	upDesc = prometheus.NewDesc(
		"fleetdeck_up", "Was the last scrape successful.", nil, nil,
	)
	scrapeDurationDesc = prometheus.NewDesc(
		"fleetdeck_scrape_duration_seconds", "Time taken to scrape the fleet server.", nil, nil,
	)
	serverHealthyDesc = prometheus.NewDesc(
		"fleetdeck_server_healthy", "Did the health endpoint answer (1=yes).", nil, nil,
	)
	cameraCountDesc = prometheus.NewDesc(
		"fleetdeck_cameras_total", "Number of cameras in the fleet.", nil, nil,
	)
	cameraInfoDesc = prometheus.NewDesc(
		"fleetdeck_camera_info", "One series per discovered camera.", []string{"hostname", "ip", "stream_path"}, nil,
	)
)

func (c *FleetCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- upDesc
	ch <- scrapeDurationDesc
	ch <- serverHealthyDesc
	ch <- cameraCountDesc
	ch <- cameraInfoDesc
}

func (c *FleetCollector) Collect(ch chan<- prometheus.Metric) {
	c.Mutex.Lock()
	defer c.Mutex.Unlock()
	start := time.Now()
	success := 1.0

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// 1. Health
	healthVal := 0.0
	var healthResp models.HealthResponse
	if err := c.Client.GetJSON(ctx, c.Host, "/health", nil, &healthResp); err == nil {
		healthVal = 1.0
	} else {
		log.Printf("Error scraping health: %v", err)
	}
	ch <- prometheus.MustNewConstMetric(serverHealthyDesc, prometheus.GaugeValue, healthVal)

	// 2. Cameras
	var camResp models.CameraListResponse
	if err := c.Client.GetJSON(ctx, c.Host, "/v1/cameras", nil, &camResp); err == nil {
		ch <- prometheus.MustNewConstMetric(cameraCountDesc, prometheus.GaugeValue, float64(len(camResp.Cameras)))
		for _, cam := range camResp.Cameras {
			ch <- prometheus.MustNewConstMetric(cameraInfoDesc, prometheus.GaugeValue, 1,
				cam.Hostname, cam.IP, cam.StreamPath)
		}
	} else {
		success = 0.0
		log.Printf("Error scraping cameras: %v", err)
	}

	ch <- prometheus.MustNewConstMetric(upDesc, prometheus.GaugeValue, success)
	ch <- prometheus.MustNewConstMetric(scrapeDurationDesc, prometheus.GaugeValue, time.Since(start).Seconds())
}

// --- COMMAND ---

var exporterCmd = &cobra.Command{
	Use:   "exporter",
	Short: "Start Prometheus exporter service",
	Long: `Starts a long-running HTTP server that exposes fleet metrics.
Can be installed as a system service.`,
	Run: func(cmd *cobra.Command, args []string) {
		svcConfig := &service.Config{
			Name:        "fleetdeck-exporter",
			DisplayName: "Fleetdeck Prometheus Exporter",
			Description: "Exposes camera fleet metrics to Prometheus",
			// Arguments passed to the binary when run as a service
			Arguments: []string{
				"exporter",
				"--scrape-server", expServer,
				"--username", expUser,
				"--password", expPass,
				"--port", expPort,
			},
		}

		prg := &program{
			collector: &FleetCollector{
				Client: transport.New(transport.Config{
					Username: expUser,
					Password: expPass,
					Timeout:  10 * time.Second,
				}),
				Host: expServer,
			},
		}

		s, err := service.New(prg, svcConfig)
		if err != nil {
			log.Fatal(err)
		}

		// Handle service control actions (install, start, stop, uninstall)
		if serviceAction != "" {
			if serviceAction == "install" && (expServer == "" || expPass == "") {
				log.Fatal("Error: You must provide --server and --password to install the service.")
			}

			if err := service.Control(s, serviceAction); err != nil {
				log.Fatalf("Failed to %s service: %v", serviceAction, err)
			}
			fmt.Printf("Service action '%s' completed successfully.\n", serviceAction)
			return
		}

		if expServer == "" {
			prg.collector.Host = serverAddress()
		}

		// Run the service (blocking). This happens when the service
		// manager starts the binary, or when run interactively.
		logger, err := s.Logger(nil)
		if err != nil {
			log.Fatal(err)
		}
		if err = s.Run(); err != nil {
			logger.Error(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(exporterCmd)
	exporterCmd.Flags().StringVar(&expServer, "scrape-server", "", "Fleet server address to scrape")
	exporterCmd.Flags().StringVar(&expUser, "username", "", "API username")
	exporterCmd.Flags().StringVar(&expPass, "password", "", "API password")
	exporterCmd.Flags().StringVar(&expPort, "port", "9100", "Port to listen on")

	exporterCmd.Flags().StringVar(&serviceAction, "service", "", "Service action: install, uninstall, start, stop")
}
