// Package kafka consumes sensor readings from a Kafka topic.
//
// Each message value is a JSON reading {"device","ts","value","unit"}
// keyed by device id, so one device's readings stay ordered within a
// partition. Messages are committed after their handler returns.
package kafka
