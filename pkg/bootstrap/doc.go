// Package bootstrap wires adt-lib's supporting infrastructure from
// configuration:
//   - Logger setup with optional file rotation
//   - OpenTelemetry tracing
//   - Prometheus metrics endpoint
//   - Redis-backed or in-memory CSRF session cache
//   - Kafka error event publishing
//
// Example usage:
//
//	func main() {
//	    cfg, err := config.Load(config.LoadOptions{EnvPrefix: "ADT", AllowNoConfig: true})
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    if err := bootstrap.InitLogger(cfg.Log); err != nil {
//	        log.Fatal(err)
//	    }
//
//	    shutdown, err := bootstrap.InitTracing(ctx, cfg.Tracing)
//	    if err != nil {
//	        log.Warn(err)
//	    }
//	    defer shutdown(ctx)
//
//	    conn, cleanup, err := bootstrap.InitConnection(ctx, cfg)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer cleanup()
//	}
package bootstrap
