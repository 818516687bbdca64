package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appstore-bot/bot/domain"
)

const sampleFeed = `{
  "PublicAssetSets": {
    "iOS": [
      {"ProductVersion": "17.2", "Build": "21C62", "PostingDate": "2023-12-11",
       "SupportedDevices": ["iPhone15,2", "iPad13,1"]},
      {"ProductVersion": "17.1", "Build": "21B74", "PostingDate": "2023-10-25",
       "SupportedDevices": ["iPhone15,2"]},
      {"ProductVersion": "12.4", "Build": "16G77", "PostingDate": "2019-07-22",
       "SupportedDevices": ["iPhone9,1"]}
    ],
    "macOS": [
      {"ProductVersion": "14.2", "Build": "23C64", "PostingDate": "2023-12-11",
       "SupportedDevices": ["Mac14,5"]}
    ]
  },
  "AssetSets": {
    "iOS": [
      {"ProductVersion": "17.2", "Build": "21C62", "PostingDate": "2023-12-11",
       "SupportedDevices": ["iPhone15,2"]},
      {"OS": "16.7.4", "Build": "20H240", "ReleaseDate": "2023-11-30",
       "SupportedDevices": ["iPhone10,1"]}
    ]
  }
}`

func TestCollectReleases_DeduplicatesByBuild(t *testing.T) {
	rs := CollectReleases([]byte(sampleFeed), domain.PlatformIOS)

	builds := map[string]int{}
	for _, r := range rs {
		builds[r.Build]++
	}
	for b, n := range builds {
		assert.Equal(t, 1, n, "build %s appeared %d times", b, n)
	}
	// 21C62 appears in both groupings; the first occurrence wins
	assert.Contains(t, builds, "21C62")
}

func TestCollectReleases_LegacyFieldFallbacks(t *testing.T) {
	rs := CollectReleases([]byte(sampleFeed), domain.PlatformIOS)

	var legacy *domain.Release
	for i := range rs {
		if rs[i].Build == "20H240" {
			legacy = &rs[i]
		}
	}
	require.NotNil(t, legacy, "node using OS/ReleaseDate fields must be picked up")
	assert.Equal(t, "16.7.4", legacy.Version)
	assert.False(t, legacy.Date.IsZero())
}

func TestCollectReleases_NewestFirst(t *testing.T) {
	rs := CollectReleases([]byte(sampleFeed), domain.PlatformIOS)
	require.NotEmpty(t, rs)
	assert.Equal(t, "17.2", rs[0].Version)

	latest, ok := Latest(rs)
	require.True(t, ok)
	assert.Equal(t, "21C62", latest.Build)
}

func TestCollectReleases_IPadOSInference(t *testing.T) {
	// labeled node plus iOS-only nodes at or above the split version;
	// the pre-split 12.4 node stays out
	rs := CollectReleases([]byte(sampleFeed), domain.PlatformIPadOS)
	builds := map[string]bool{}
	for _, r := range rs {
		builds[r.Build] = true
	}
	assert.True(t, builds["21C62"])
	assert.True(t, builds["21B74"])
	assert.False(t, builds["16G77"])

	// iOS-only node at or above the split version is inferred in
	shared := `{"AssetSets":{"iOS":[
	  {"ProductVersion":"16.2","Build":"20C65","SupportedDevices":["iPhone14,7"]},
	  {"ProductVersion":"12.4","Build":"16G77","SupportedDevices":["iPhone9,1"]}
	]}}`
	rs = CollectReleases([]byte(shared), domain.PlatformIPadOS)
	require.Len(t, rs, 1)
	assert.Equal(t, "20C65", rs[0].Build)
}

func TestCollectReleases_SkipsNodesWithoutVersionAndBuild(t *testing.T) {
	feed := `{"PublicAssetSets":{"iOS":[
	  {"SupportedDevices":["iPhone15,2"]},
	  {"ProductVersion":"17.0","Build":"21A329","SupportedDevices":["iPhone15,2"]}
	]}}`
	rs := CollectReleases([]byte(feed), domain.PlatformIOS)
	require.Len(t, rs, 1)
	assert.Equal(t, "21A329", rs[0].Build)
}

func TestCollectReleases_ToleratesArbitraryShapes(t *testing.T) {
	assert.Empty(t, CollectReleases(nil, domain.PlatformIOS))
	assert.Empty(t, CollectReleases([]byte(`not json`), domain.PlatformIOS))
	assert.Empty(t, CollectReleases([]byte(`{"PublicAssetSets": 7}`), domain.PlatformIOS))
	assert.Empty(t, CollectReleases([]byte(`{"PublicAssetSets":{"iOS":"nope"}}`), domain.PlatformIOS))
	assert.Empty(t, CollectReleases([]byte(`{"PublicAssetSets":{"iOS":[42]}}`), domain.PlatformIOS))
}

func TestCollectReleases_Idempotent(t *testing.T) {
	first := CollectReleases([]byte(sampleFeed), domain.PlatformIOS)
	second := CollectReleases([]byte(sampleFeed), domain.PlatformIOS)
	assert.Equal(t, first, second)
}

func TestIsPrerelease(t *testing.T) {
	stable := domain.Release{Raw: `{"ProductVersion":"17.2","Build":"21C62"}`}
	assert.False(t, IsPrerelease(stable))

	beta := domain.Release{Raw: `{"ProductVersion":"17.3","Build":"21D5026f","ReleaseType":"Beta"}`}
	assert.True(t, IsPrerelease(beta))
	assert.True(t, IsBeta(beta))

	rc := domain.Release{Raw: `{"ProductVersion":"17.3","ReleaseType":"RC"}`}
	assert.True(t, IsPrerelease(rc))
	assert.False(t, IsBeta(rc))
}

func TestHistory_FixedPrefix(t *testing.T) {
	rs := make([]domain.Release, 8)
	assert.Len(t, History(rs), 5)
	assert.Len(t, History(rs[:3]), 3)
}
