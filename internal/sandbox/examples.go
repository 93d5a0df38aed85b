package sandbox

// ExampleGreedy is a reference algorithm: BFS toward the food, falling back
// to any safe neighbor. Useful as a CLI default and as a smoke-test subject.
const ExampleGreedy = `
function algorithm(ctx) {
    var head = ctx.body[0];
    var obstacles = utils.createObstacleSet(ctx.body);
    var path = utils.findPath(head, ctx.food, obstacles, 64);
    if (path && path.length > 0) {
        return utils.normalizeDirection(head, path[0]);
    }
    for (var i = 0; i < utils.DIRECTIONS.length; i++) {
        var d = utils.DIRECTIONS[i];
        var next = utils.wrap({x: head.x + d.x, y: head.y + d.y, z: head.z + d.z});
        if (!(utils.keyOf(next) in obstacles)) {
            return d;
        }
    }
    return null;
}
`

// ExampleStraight always moves +x, orbiting a single row via wraparound.
// It exercises the wrap path deterministically and usually survives to the
// frame limit.
const ExampleStraight = `
function algorithm(ctx) {
    return {x: 1, y: 0, z: 0};
}
`
