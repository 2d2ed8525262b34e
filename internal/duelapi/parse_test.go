package duelapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePrimitiveBodies(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		wantOK bool
	}{
		{"bare true", "true", true},
		{"bare TRUE", "TRUE", true},
		{"bare 1", "1", true},
		{"true with trailing text", "true\n", true},
		{"bare false", "false", false},
		{"bare False", "False", false},
		{"bare 0", "0", false},
		{"quoted true", `"true"`, true},
		{"quoted false", `"false"`, false},
		{"number nonzero", "17", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := normalize(true, []byte(tc.body))
			assert.Equal(t, tc.wantOK, res.OK)
			assert.Nil(t, res.Session, "primitive responses carry no session")
		})
	}
}

func TestNormalizeEmptyBody(t *testing.T) {
	res := normalize(true, []byte("   \n "))
	assert.False(t, res.OK)
	assert.Nil(t, res.Session)
	assert.Empty(t, res.Message)
}

func TestNormalizeOpaqueTextFallsBack(t *testing.T) {
	res := normalize(true, []byte("<html>gateway error</html>"))
	assert.False(t, res.OK)
	assert.Nil(t, res.Session)
	assert.Equal(t, "<html>gateway error</html>", res.Message)
}

func TestNormalizeHTTPFailureForcesFailure(t *testing.T) {
	body := `{"status":"Fighting","message":"maintenance"}`
	res := normalize(false, []byte(body))
	assert.False(t, res.OK)
	assert.Nil(t, res.Session, "HTTP failure must not yield a session")
	assert.Equal(t, "maintenance", res.Message)

	res = normalize(false, []byte("true"))
	assert.False(t, res.OK, "primitive success under HTTP failure is still a failure")
}

func TestNormalizeStructuredSession(t *testing.T) {
	body := `{
		"player1_osrs_username": "Zezima",
		"player1_joined": true,
		"player1_ready_to_fight": false,
		"player1_authentication_token": "tok-1",
		"player2_osrs_username": "Durial321",
		"player2_joined": 1,
		"player2_ready_to_fight": "true",
		"player2_authentication_token": "tok-2",
		"world": 330,
		"zone": "Clan Wars",
		"status": "WaitingAtRally",
		"risk": "medium",
		"gear_rules": {"whip": false},
		"rally": {"x": 3370, "y": 3163, "plane": 0},
		"winner": null,
		"authentication": {"token": "ignored", "expires_at": "2026-01-01T00:00:00Z"},
		"message": "ok",
		"token_refresh": false
	}`
	res := normalize(true, []byte(body))
	require.True(t, res.OK)
	require.NotNil(t, res.Session)
	s := res.Session

	assert.Equal(t, "Zezima", s.Participants[0].RSN)
	assert.True(t, s.Participants[0].Joined)
	assert.False(t, s.Participants[0].Ready)
	assert.Equal(t, "tok-1", s.Participants[0].Token)

	assert.Equal(t, "Durial321", s.Participants[1].RSN)
	assert.True(t, s.Participants[1].Joined, "numeric 1 coerces to true")
	assert.True(t, s.Participants[1].Ready, `string "true" coerces to true`)

	assert.Equal(t, 330, s.World)
	assert.Equal(t, "Clan Wars", s.Zone)
	assert.Equal(t, "WaitingAtRally", s.Status)
	assert.Equal(t, "medium", s.Risk)
	assert.JSONEq(t, `{"whip":false}`, s.GearRules, "object gear rules are captured as text")

	require.NotNil(t, s.Rally)
	assert.Equal(t, 3370, s.Rally.X)
	assert.Equal(t, 3163, s.Rally.Y)
	assert.Equal(t, 0, s.Rally.Plane)

	assert.Nil(t, s.Winner, "winner null means no winner yet")
	assert.Equal(t, "2026-01-01T00:00:00Z", s.TokenExpiry)
	assert.Equal(t, "ok", res.Message)
	assert.False(t, res.TokenRefresh)
}

func TestNormalizeRallyAbsent(t *testing.T) {
	for _, body := range []string{
		`{"status":"Open"}`,
		`{"status":"Open","rally":null}`,
	} {
		res := normalize(true, []byte(body))
		require.NotNil(t, res.Session, body)
		assert.Nil(t, res.Session.Rally, body)
	}
}

func TestNormalizeGearRulesShapes(t *testing.T) {
	cases := []struct {
		body string
		want string
	}{
		{`{"gear_rules":"no overheads"}`, "no overheads"},
		{`{"gear_rules":["melee","range"]}`, `["melee","range"]`},
		{`{"gear_rules":{"max_risk":100000}}`, `{"max_risk":100000}`},
		{`{"gear_rules":null}`, ""},
		{`{}`, ""},
	}
	for _, tc := range cases {
		res := normalize(true, []byte(tc.body))
		require.NotNil(t, res.Session, tc.body)
		assert.Equal(t, tc.want, res.Session.GearRules, tc.body)
	}
}

func TestNormalizeWinner(t *testing.T) {
	body := `{"status":"Completed","winner":{"osrs_rsn":"Zezima","combat_level":126,"elo":1510}}`
	res := normalize(true, []byte(body))
	require.NotNil(t, res.Session)
	require.NotNil(t, res.Session.Winner)
	assert.Equal(t, "Zezima", res.Session.Winner.RSN)
	assert.Equal(t, 126, res.Session.Winner.CombatLevel)
	assert.Equal(t, 1510, res.Session.Winner.Rating)
}

func TestNormalizeTokenRefreshFlags(t *testing.T) {
	cases := []struct {
		body string
		want bool
	}{
		{`{"token_refresh":true}`, true},
		{`{"refresh_token":true}`, true},
		{`{"refresh_token":1}`, true},
		{`{"token_refresh":"true"}`, true},
		{`{"token_refresh":false}`, false},
		{`{}`, false},
	}
	for _, tc := range cases {
		res := normalize(true, []byte(tc.body))
		assert.Equal(t, tc.want, res.TokenRefresh, tc.body)
	}
}

func TestNormalizeDefaultsForMissingFields(t *testing.T) {
	res := normalize(true, []byte(`{}`))
	require.True(t, res.OK)
	require.NotNil(t, res.Session)
	s := res.Session
	assert.Equal(t, "", s.Participants[0].RSN)
	assert.False(t, s.Participants[1].Joined)
	assert.Equal(t, 0, s.World)
	assert.Equal(t, "", s.Status)
	assert.Nil(t, s.Winner)
}

func TestNormalizeKeepsRawBody(t *testing.T) {
	body := `{"status":"Open"}`
	res := normalize(true, []byte(body))
	assert.Equal(t, body, res.Raw)
}
