// Package config loads vtree.yaml, the configuration file read by the vtree
// command.
//
// The file is YAML; JSON documents are accepted too since they parse as
// YAML. Missing fields take defaults and the result is validated before it
// is returned.
//
// # Configuration File Structure
//
//	log:
//	  level: info
//	  format: text
//	inspect:
//	  addr: 127.0.0.1:7070
//	  history: 200
//	  rate: 60
//	  burst: 20
//	snapshot:
//	  backend: disk
//	  dir: testdata/snapshots
//	telemetry:
//	  metrics: true
//	  namespace: vtree
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println("Inspector:", cfg.Inspect.Addr)
package config
