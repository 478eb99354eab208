package openrouteservice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/saferoute/internal/core/domain"
)

func TestPolylineCodec_Decode(t *testing.T) {
	// Reference string from the encoded polyline algorithm documentation.
	path, err := PolylineCodec{}.Decode("_p~iF~ps|U_ulLnnqC_mqNvxq`@")
	require.NoError(t, err)
	require.Len(t, path, 3)

	want := []domain.GeoPoint{
		{Lat: 38.5, Lon: -120.2},
		{Lat: 40.7, Lon: -120.95},
		{Lat: 43.252, Lon: -126.453},
	}
	for i := range want {
		assert.InDelta(t, want[i].Lat, path[i].Lat, 1e-5)
		assert.InDelta(t, want[i].Lon, path[i].Lon, 1e-5)
	}
	assert.Equal(t, domain.LatLng{38.5, -120.2}, domain.ToLatLngPath(path)[0])
}

func TestPolylineCodec_RoundTrip(t *testing.T) {
	codec := PolylineCodec{}
	in := []domain.GeoPoint{{Lat: 33.6846, Lon: -117.8265}, {Lat: 33.6405, Lon: -117.8443}}

	out, err := codec.Decode(codec.Encode(in))
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.InDelta(t, in[1].Lon, out[1].Lon, 1e-5)
}

func TestPolylineCodec_Empty(t *testing.T) {
	path, err := PolylineCodec{}.Decode("")
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestPolylineCodec_Truncated(t *testing.T) {
	_, err := PolylineCodec{}.Decode("_p~iF~ps|U_")
	assert.Error(t, err)
}
