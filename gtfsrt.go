package main

import (
	"time"

	gtfs "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"
)

// buildFeedMessage encodes the latest position of every vehicle as a GTFS-Realtime
// VehiclePositions feed. The line name is exported as the route id.
func buildFeedMessage(latest []LatestPosition, at time.Time) *gtfs.FeedMessage {
	msg := &gtfs.FeedMessage{
		Header: &gtfs.FeedHeader{
			GtfsRealtimeVersion: proto.String("2.0"),
			Incrementality:      gtfs.FeedHeader_FULL_DATASET.Enum(),
			Timestamp:           proto.Uint64(uint64(at.Unix())),
		},
		Entity: make([]*gtfs.FeedEntity, 0, len(latest)),
	}
	for _, v := range latest {
		msg.Entity = append(msg.Entity, &gtfs.FeedEntity{
			Id: proto.String(v.ID),
			Vehicle: &gtfs.VehiclePosition{
				Trip: &gtfs.TripDescriptor{
					RouteId: proto.String(v.Line),
				},
				Vehicle: &gtfs.VehicleDescriptor{
					Id:    proto.String(v.ID),
					Label: proto.String(v.Line),
				},
				Position: &gtfs.Position{
					Latitude:  proto.Float32(float32(v.Lat)),
					Longitude: proto.Float32(float32(v.Lon)),
				},
			},
		})
	}
	return msg
}

func encodeFeedMessage(latest []LatestPosition, at time.Time) ([]byte, error) {
	return proto.Marshal(buildFeedMessage(latest, at))
}
